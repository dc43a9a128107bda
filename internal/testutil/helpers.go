package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test if the DIRECTROUTE_VM_TEST environment variable is not set.
// This ensures that tests mutating real kernel routing state only run in a
// disposable environment.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("DIRECTROUTE_VM_TEST") == "" {
		t.Skip("Skipping test: requires DIRECTROUTE_VM_TEST environment")
	}
}

// RequireRoot skips the test unless it runs as root.
func RequireRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("Skipping test: requires root")
	}
}
