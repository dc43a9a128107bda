package network

import (
	"context"
	"net/netip"

	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a mock implementation of the CommandExecutor interface.
type MockCommandExecutor struct {
	mock.Mock
}

func (m *MockCommandExecutor) RunCommand(ctx context.Context, name string, arg ...string) (Result, error) {
	argsSlice := []interface{}{name}
	for _, a := range arg {
		argsSlice = append(argsSlice, a)
	}

	args := m.Called(argsSlice...)
	return args.Get(0).(Result), args.Error(1)
}

// MockInspector is a mock implementation of the Inspector interface.
type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) DefaultRoutes(ctx context.Context) ([]DefaultRoute, error) {
	args := m.Called()
	routes, _ := args.Get(0).([]DefaultRoute)
	return routes, args.Error(1)
}
func (m *MockInspector) RouteSource(ctx context.Context, dst netip.Addr) (netip.Addr, error) {
	args := m.Called(dst)
	return args.Get(0).(netip.Addr), args.Error(1)
}
func (m *MockInspector) InterfaceByAddress(ctx context.Context, addr netip.Addr) (string, error) {
	args := m.Called(addr)
	return args.String(0), args.Error(1)
}
func (m *MockInspector) AdapterDescription(ctx context.Context, name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}
