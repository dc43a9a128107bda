//go:build !linux

package routetable

// NewNetlinkProvider is only available on Linux.
func NewNetlinkProvider() (Provider, error) {
	return nil, ErrNetlinkUnsupported
}
