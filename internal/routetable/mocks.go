package routetable

import (
	"context"
	"net/netip"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of the Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Print(ctx context.Context, dest netip.Addr) (Result, error) {
	args := m.Called(dest)
	return args.Get(0).(Result), args.Error(1)
}
func (m *MockProvider) Add(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	args := m.Called(dest, mask, gateway, metric)
	return args.Get(0).(Result), args.Error(1)
}
func (m *MockProvider) Change(ctx context.Context, dest, mask, gateway netip.Addr, metric int) (Result, error) {
	args := m.Called(dest, mask, gateway, metric)
	return args.Get(0).(Result), args.Error(1)
}
func (m *MockProvider) Delete(ctx context.Context, dest netip.Addr) (Result, error) {
	args := m.Called(dest)
	return args.Get(0).(Result), args.Error(1)
}
