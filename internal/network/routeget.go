package network

import (
	"bufio"
	"fmt"
	"net/netip"
	"strings"
)

// parseRouteGet reads the key: value output of BSD `route -n get default`.
func parseRouteGet(out string) (DefaultRoute, error) {
	var dr DefaultRoute
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "gateway":
			gw, err := netip.ParseAddr(strings.TrimSpace(value))
			if err != nil {
				return DefaultRoute{}, fmt.Errorf("gateway %q: %w", strings.TrimSpace(value), err)
			}
			dr.Gateway = gw
		case "interface":
			dr.InterfaceName = strings.TrimSpace(value)
		}
	}
	if !dr.Gateway.IsValid() {
		return DefaultRoute{}, fmt.Errorf("no gateway in route output")
	}
	return dr, nil
}
