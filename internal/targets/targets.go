// Package targets loads the destination address list.
//
// The list is a text file with one entry per line. IPv6 lines (anything with
// a colon) are ignored, CIDR suffixes are stripped, and lines that are not
// IPv4 literals are skipped with a warning.
package targets

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"grimm.is/directroute/internal/brand"
	"grimm.is/directroute/internal/logging"
)

// ErrEmptyAddressList means the list yielded no usable destination.
var ErrEmptyAddressList = errors.New("address list is empty")

// Destination is one address whose route is kept on the direct gateway.
type Destination struct {
	Address netip.Addr `json:"address"`
}

func (d Destination) String() string {
	return d.Address.String()
}

// ResolvePath makes a relative list path relative to the executable's
// directory. An empty path means the default list name. If the executable
// cannot be located the path is returned unchanged.
func ResolvePath(path string) string {
	if path == "" {
		path = brand.AddressListName
	}
	if filepath.IsAbs(path) {
		return path
	}
	dir, err := brand.ExecutableDir()
	if err != nil {
		return path
	}
	return filepath.Join(dir, path)
}

// LoadFile reads the address list at path.
func LoadFile(path string) ([]Destination, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", ErrEmptyAddressList, path)
		}
		return nil, fmt.Errorf("open address list: %w", err)
	}
	defer f.Close()

	dests, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dests, nil
}

// Parse reads an address list in source order. Duplicates are kept once.
func Parse(r io.Reader) ([]Destination, error) {
	logger := logging.WithComponent("targets")

	var (
		dests []Destination
		seen  = make(map[netip.Addr]bool)
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.Contains(line, ":") {
			continue
		}
		line = strings.TrimSpace(line)
		line, _, _ = strings.Cut(line, "/")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		addr, err := netip.ParseAddr(line)
		if err != nil || !addr.Is4() {
			logger.Warn("skipping invalid address", "line", lineNo, "value", line)
			continue
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		dests = append(dests, Destination{Address: addr})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read address list: %w", err)
	}
	if len(dests) == 0 {
		return nil, ErrEmptyAddressList
	}
	return dests, nil
}
