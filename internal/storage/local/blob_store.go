// Package local implements a filesystem profile store rooted at the profile root.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/storage"
)

// Config captures the parameters for the local filesystem store.
type Config struct {
	// BaseDir is the profile root. Profiles are discovered anywhere below it.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// BlobStore writes profiles to the local filesystem.
type BlobStore struct {
	baseDir string
}

var _ storage.Provider = (*BlobStore)(nil)

// New creates a new local filesystem-backed store.
func New(cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	// Check if the directory exists and is writable.
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &BlobStore{
		baseDir: cfg.BaseDir,
	}, nil
}

// Upload writes the record under its basename and returns a file:// URI.
func (s *BlobStore) Upload(_ context.Context, rec *profile.Record) (profile.Upload, error) {
	if rec == nil {
		return profile.Upload{}, fmt.Errorf("record is required")
	}
	if strings.TrimSpace(rec.Basename) == "" {
		return profile.Upload{}, fmt.Errorf("basename is required")
	}

	fullPath, err := s.resolve(rec.Basename)
	if err != nil {
		return profile.Upload{}, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return profile.Upload{}, fmt.Errorf("failed to create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, rec.Raw, 0o600); err != nil {
		return profile.Upload{}, fmt.Errorf("failed to write file: %w", err)
	}

	return profile.Upload{
		Name: profile.ID(rec.Basename),
		URL:  fmt.Sprintf("file://%s", fullPath),
	}, nil
}

// Fetch returns the first profile in walk order whose id matches.
func (s *BlobStore) Fetch(ctx context.Context, id string) ([]byte, error) {
	ref, err := storage.Find(ctx, s, id)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path comes from walking the configured base directory.
	data, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(ref.Path)))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", ref.Path, err)
	}
	return data, nil
}

// List walks the base directory in lexical order and returns every *.json file.
func (s *BlobStore) List(ctx context.Context) ([]storage.FileRef, error) {
	var refs []storage.FileRef
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), profile.Suffix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		refs = append(refs, storage.FileRef{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			Updated: info.ModTime(),
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return refs, nil
}

func (s *BlobStore) resolve(name string) (string, error) {
	fullPath := filepath.Join(s.baseDir, name)

	// Clean the path and verify it's within baseDir to prevent path traversal.
	cleanBaseDir := filepath.Clean(s.baseDir)
	cleanFullPath := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFullPath, cleanBaseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return fullPath, nil
}
