package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mfarlowe/picow-agent/pkg/fetch"
)

// MockFetcher is a mock implementation of the fetch.Fetcher interface
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, location string) (fetch.Result, error) {
	args := m.Called(ctx, location)
	return args.Get(0).(fetch.Result), args.Error(1)
}
