package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWifiManager is a mock implementation of the wifi.Manager interface
type MockWifiManager struct {
	mock.Mock
}

func (m *MockWifiManager) Associate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockWifiManager) IsConnected() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *MockWifiManager) IPAddress() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
