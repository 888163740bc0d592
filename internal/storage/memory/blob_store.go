// Package memory stores profiles in-memory for development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/storage"
)

// BlobStore stores profiles in-memory and returns pseudo URIs.
type BlobStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	order []string
}

var _ storage.Provider = (*BlobStore)(nil)

// NewBlobStore creates a new in-memory store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
	}
}

// Upload persists a copy of the raw bytes under the record's basename.
func (s *BlobStore) Upload(_ context.Context, rec *profile.Record) (profile.Upload, error) {
	if rec == nil || rec.Basename == "" {
		return profile.Upload{}, fmt.Errorf("record with basename is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.Basename]; !exists {
		s.order = append(s.order, rec.Basename)
	}
	s.data[rec.Basename] = append([]byte(nil), rec.Raw...)
	return profile.Upload{
		Name: profile.ID(rec.Basename),
		URL:  fmt.Sprintf("memory://%s", rec.Basename),
	}, nil
}

// Fetch returns a copy of the first stored profile whose id matches.
func (s *BlobStore) Fetch(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, name := range s.order {
		if profile.ID(name) == id {
			return append([]byte(nil), s.data[name]...), nil
		}
	}
	return nil, fmt.Errorf("fetch %q: %w", id, storage.ErrNotFound)
}

// List returns stored profiles in insertion order.
func (s *BlobStore) List(_ context.Context) ([]storage.FileRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]storage.FileRef, 0, len(s.order))
	for _, name := range s.order {
		refs = append(refs, storage.FileRef{Path: name, Size: int64(len(s.data[name]))})
	}
	return refs, nil
}
