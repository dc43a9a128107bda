package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/directroute/internal/agent"
	"grimm.is/directroute/internal/reconcile"
	"grimm.is/directroute/internal/scheduler"
)

func TestRunStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(agent.Status{
			Gateway:  "192.168.1.1 `2 Intel`",
			Resolved: true,
			Provider: "netlink",
			Loop: scheduler.LoopStatus{
				State:        scheduler.StateWaiting,
				Cycles:       7,
				Destinations: 3,
				LastCycle: &reconcile.CycleOutcome{
					Outcome: reconcile.Outcome{Mutated: true},
					ID:      "c-1",
				},
			},
			Tasks: []scheduler.TaskStatus{{ID: "gateway-check", RunCount: 4, ErrorCount: 1, LastError: "packet loss"}},
		})
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, RunStatus(context.Background(), &out, strings.TrimPrefix(srv.URL, "http://")))
	s := out.String()
	assert.Contains(t, s, "waiting")
	assert.Contains(t, s, "Cycles:       7")
	assert.Contains(t, s, "c-1 (mutated")
	assert.Contains(t, s, "packet loss")
}

func TestRunStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	err := RunStatus(context.Background(), &bytes.Buffer{}, strings.TrimPrefix(srv.URL, "http://"))
	assert.Error(t, err)
}
