// Package storage defines the interface for a profile storage backend.
// This abstraction keeps the upload coordinator and the viewer independent of a
// specific implementation (e.g., Google Cloud Storage, the local filesystem, or memory).
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JakeFAU/appprofiler/internal/profile"
)

// ErrNotFound is returned by Fetch when no stored profile matches the id.
var ErrNotFound = errors.New("profile not found")

// FileRef names one stored profile file.
type FileRef struct {
	// Path is backend-relative and always ends with profile.Suffix.
	Path    string
	Size    int64
	Updated time.Time
}

// ID returns the profile id derived from the file's basename.
func (f FileRef) ID() string {
	return profile.ID(f.Path)
}

// Find returns the first listed file whose id matches, or ErrNotFound.
func Find(ctx context.Context, p Provider, id string) (FileRef, error) {
	refs, err := p.List(ctx)
	if err != nil {
		return FileRef{}, fmt.Errorf("find %q: %w", id, err)
	}
	for _, ref := range refs {
		if ref.ID() == id {
			return ref, nil
		}
	}
	return FileRef{}, fmt.Errorf("find %q: %w", id, ErrNotFound)
}

// Provider defines the common interface for a profile storage backend.
// Implementations own their own timeouts; callers treat every method as
// potentially slow I/O.
type Provider interface {
	// Upload persists the record and returns its canonical handle.
	Upload(ctx context.Context, rec *profile.Record) (profile.Upload, error)
	// Fetch returns the raw bytes of the profile with the given id or ErrNotFound.
	Fetch(ctx context.Context, id string) ([]byte, error)
	// List enumerates stored profiles in a stable, backend-defined order.
	List(ctx context.Context) ([]FileRef, error)
}
