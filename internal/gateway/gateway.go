// Package gateway discovers the direct (non-tunnel) default gateway.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/network"
)

// ErrUnresolved is returned when no default route qualifies as direct.
var ErrUnresolved = errors.New("direct gateway unresolved")

// Selection chooses among several qualifying default routes.
type Selection string

const (
	SelectLast         Selection = "last"
	SelectFirst        Selection = "first"
	SelectLowestMetric Selection = "lowest-metric"
)

// ParseSelection validates a selection name. Empty means SelectLast.
func ParseSelection(s string) (Selection, error) {
	switch sel := Selection(strings.ToLower(strings.TrimSpace(s))); sel {
	case "":
		return SelectLast, nil
	case SelectLast, SelectFirst, SelectLowestMetric:
		return sel, nil
	}
	return "", fmt.Errorf("unknown gateway selection %q", s)
}

// Info identifies the direct gateway. The zero value means unresolved.
type Info struct {
	Address      netip.Addr `json:"address"`
	AdapterIndex string     `json:"adapter_index"`
	AdapterName  string     `json:"adapter_name"`
}

// Resolved reports whether a gateway address is known.
func (i Info) Resolved() bool {
	return i.Address.IsValid()
}

func (i Info) String() string {
	if !i.Resolved() {
		return "unresolved"
	}
	return fmt.Sprintf("%s `%s %s`", i.Address, i.AdapterIndex, i.AdapterName)
}

// Options controls candidate exclusion and selection.
type Options struct {
	// Excludes are case-insensitive substrings of adapter descriptions that
	// disqualify a default route.
	Excludes  []string
	Selection Selection
	Logger    *logging.Logger
}

type candidate struct {
	route       network.DefaultRoute
	description string
}

// Resolve enumerates the default routes, drops those whose adapter looks
// like a tunnel, and picks one of the rest according to opts.Selection.
func Resolve(ctx context.Context, insp network.Inspector, opts Options) (Info, error) {
	log := opts.Logger
	if log == nil {
		log = logging.WithComponent("gateway")
	}

	routes, err := insp.DefaultRoutes(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrUnresolved, err)
	}

	excludes := make([]string, 0, len(opts.Excludes))
	for _, e := range opts.Excludes {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			excludes = append(excludes, e)
		}
	}

	var candidates []candidate
	for _, r := range routes {
		if !r.Gateway.Is4() || r.Gateway.IsUnspecified() {
			continue
		}
		desc, err := insp.AdapterDescription(ctx, r.InterfaceName)
		if err != nil {
			log.Debug("skipping default route, adapter lookup failed", "route", r.String(), "error", err)
			continue
		}
		if marker, hit := containsAny(desc, excludes); hit {
			log.Debug("skipping tunnel default route", "route", r.String(), "description", desc, "marker", marker)
			continue
		}
		candidates = append(candidates, candidate{route: r, description: desc})
	}

	if len(candidates) == 0 {
		return Info{}, fmt.Errorf("%w: no default route outside excluded adapters (%d enumerated)", ErrUnresolved, len(routes))
	}
	if len(candidates) > 1 {
		log.Warn("multiple direct default routes", "count", len(candidates), "selection", string(opts.Selection))
	}

	chosen := pick(candidates, opts.Selection)
	info := Info{
		Address:      chosen.route.Gateway,
		AdapterIndex: strconv.Itoa(chosen.route.InterfaceIndex),
		AdapterName:  chosen.description,
	}
	log.Info("direct gateway resolved", "gateway", info.Address.String(),
		"interface", chosen.route.InterfaceName, "index", info.AdapterIndex, "adapter", info.AdapterName)
	return info, nil
}

func pick(cs []candidate, sel Selection) candidate {
	switch sel {
	case SelectFirst:
		return cs[0]
	case SelectLowestMetric:
		best := cs[0]
		for _, c := range cs[1:] {
			if c.route.Metric < best.route.Metric {
				best = c
			}
		}
		return best
	default:
		return cs[len(cs)-1]
	}
}

func containsAny(desc string, markers []string) (string, bool) {
	lower := strings.ToLower(desc)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return m, true
		}
	}
	return "", false
}
