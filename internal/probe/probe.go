// Package probe classifies how the OS currently reaches a destination.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"grimm.is/directroute/internal/network"
)

// Classification of the current path to a destination.
type Classification int

const (
	Unresolvable Classification = iota
	Direct
	Tunneled
)

func (c Classification) String() string {
	switch c {
	case Direct:
		return "direct"
	case Tunneled:
		return "tunneled"
	default:
		return "unresolvable"
	}
}

// ErrUnresolvable means the source address the OS picked belongs to no
// local interface.
var ErrUnresolvable = errors.New("route source has no local interface")

// Step names the probe stage that failed.
type Step string

const (
	StepRouteSource Step = "route-source"
	StepInterface   Step = "interface"
	StepDescription Step = "description"
)

// ProbeError is a failure to determine the path, as opposed to a normal
// Direct or Tunneled answer.
type ProbeError struct {
	Dest netip.Addr
	Step Step
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %s: %v", e.Dest, e.Step, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// Result describes the path found for a destination.
type Result struct {
	Class       Classification
	Source      netip.Addr
	Interface   string
	Description string
}

// Classifier maps a destination to Direct or Tunneled by looking at the
// adapter that carries its traffic.
type Classifier struct {
	insp   network.Inspector
	marker string
}

// NewClassifier creates a classifier that treats adapters whose description
// contains marker (case-insensitively) as the tunnel.
func NewClassifier(insp network.Inspector, marker string) *Classifier {
	return &Classifier{insp: insp, marker: strings.ToLower(strings.TrimSpace(marker))}
}

// Classify probes dest. Failures are returned as *ProbeError; an address
// with no owning interface additionally matches ErrUnresolvable.
func (c *Classifier) Classify(ctx context.Context, dest netip.Addr) (Result, error) {
	src, err := c.insp.RouteSource(ctx, dest)
	if err != nil {
		return Result{}, &ProbeError{Dest: dest, Step: StepRouteSource, Err: err}
	}
	res := Result{Class: Unresolvable, Source: src}

	name, err := c.insp.InterfaceByAddress(ctx, src)
	if err != nil {
		if errors.Is(err, network.ErrInterfaceNotFound) {
			err = fmt.Errorf("%w: %w", ErrUnresolvable, err)
		}
		return res, &ProbeError{Dest: dest, Step: StepInterface, Err: err}
	}
	res.Interface = name

	desc, err := c.insp.AdapterDescription(ctx, name)
	if err != nil {
		return res, &ProbeError{Dest: dest, Step: StepDescription, Err: err}
	}
	res.Description = desc

	if c.marker != "" && strings.Contains(strings.ToLower(desc), c.marker) {
		res.Class = Tunneled
	} else {
		res.Class = Direct
	}
	return res, nil
}
