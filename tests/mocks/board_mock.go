package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockResetter is a mock implementation of the board.Resetter interface
type MockResetter struct {
	mock.Mock
}

func (m *MockResetter) Reset() error {
	args := m.Called()
	return args.Error(0)
}
