// Package gcs provides a profile store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/JakeFAU/appprofiler/internal/profile"
	profilestorage "github.com/JakeFAU/appprofiler/internal/storage"
)

const contentType = "application/json"

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	// Prefix is prepended to every object name, e.g. "profiles".
	Prefix string
	// PublicBaseURL overrides the host used in returned URLs.
	PublicBaseURL string
}

// BlobStore writes profiles to a configured GCS bucket.
type BlobStore struct {
	client  *storage.Client
	bucket  string
	prefix  string
	baseURL string
}

var _ profilestorage.Provider = (*BlobStore)(nil)

// New creates a GCS-backed profile store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com"
	}
	return &BlobStore{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		baseURL: baseURL,
	}, nil
}

// Upload writes the record to <prefix>/<basename> and returns its public URL.
func (s *BlobStore) Upload(ctx context.Context, rec *profile.Record) (profile.Upload, error) {
	if rec == nil || strings.TrimSpace(rec.Basename) == "" {
		return profile.Upload{}, fmt.Errorf("record with basename is required")
	}
	object := s.objectName(rec.Basename)
	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(rec.Raw); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return profile.Upload{}, fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return profile.Upload{}, fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return profile.Upload{}, fmt.Errorf("close writer: %w", err)
	}
	return profile.Upload{
		Name: profile.ID(rec.Basename),
		URL:  fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, object),
	}, nil
}

// Fetch reads the first listed object whose id matches, nested or not.
func (s *BlobStore) Fetch(ctx context.Context, id string) ([]byte, error) {
	ref, err := profilestorage.Find(ctx, s, id)
	if err != nil {
		return nil, err
	}
	object := s.objectName(ref.Path)
	reader, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("fetch %q: %w", id, profilestorage.ErrNotFound)
		}
		return nil, fmt.Errorf("open object %s: %w", object, err)
	}
	defer reader.Close() //nolint:errcheck // read-only close

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", object, err)
	}
	return data, nil
}

// List returns every *.json object under the prefix in bucket order.
func (s *BlobStore) List(ctx context.Context) ([]profilestorage.FileRef, error) {
	query := &storage.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)

	var refs []profilestorage.FileRef
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, profile.Suffix) {
			continue
		}
		refs = append(refs, profilestorage.FileRef{
			Path:    strings.TrimPrefix(attrs.Name, query.Prefix),
			Size:    attrs.Size,
			Updated: attrs.Updated,
		})
	}
	return refs, nil
}

func (s *BlobStore) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
