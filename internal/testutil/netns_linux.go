//go:build linux

package testutil

import (
	"runtime"
	"testing"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// WithNetns runs fn on a locked OS thread inside a fresh network namespace
// with loopback up, then restores the original namespace.
func WithNetns(t *testing.T, fn func()) {
	t.Helper()
	RequireRoot(t)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	orig, err := netns.Get()
	if err != nil {
		t.Fatalf("get current netns: %v", err)
	}
	defer orig.Close()

	ns, err := netns.New()
	if err != nil {
		t.Skipf("Skipping test: cannot create netns: %v", err)
	}
	defer func() {
		if err := netns.Set(orig); err != nil {
			t.Errorf("restore netns: %v", err)
		}
		ns.Close()
	}()

	lo, err := netlink.LinkByName("lo")
	if err != nil {
		t.Fatalf("lookup lo: %v", err)
	}
	if err := netlink.LinkSetUp(lo); err != nil {
		t.Fatalf("set lo up: %v", err)
	}

	fn()
}
