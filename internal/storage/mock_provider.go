package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/appprofiler/internal/profile"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mock.Mock
}

// Upload is the mock implementation of the Upload method.
func (m *MockProvider) Upload(ctx context.Context, rec *profile.Record) (profile.Upload, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(profile.Upload), args.Error(1) //nolint:wrapcheck
}

// Fetch is the mock implementation of the Fetch method.
func (m *MockProvider) Fetch(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1) //nolint:wrapcheck
}

// List is the mock implementation of the List method.
func (m *MockProvider) List(ctx context.Context) ([]FileRef, error) {
	args := m.Called(ctx)
	refs, _ := args.Get(0).([]FileRef)
	return refs, args.Error(1) //nolint:wrapcheck
}
