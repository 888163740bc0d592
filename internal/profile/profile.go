// Package profile models completed profiling runs and the handles storage
// backends return for them.
package profile

import (
	"context"
	"path"
	"strings"
)

// Suffix is the extension every stored profile carries.
const Suffix = ".json"

// Record is one completed profiling run. It is immutable after creation.
type Record struct {
	ID       string
	Raw      []byte
	Basename string
}

// NewRecord copies raw so later mutation by the caller cannot leak into the record.
func NewRecord(id string, raw []byte, basename string) *Record {
	return &Record{
		ID:       id,
		Raw:      append([]byte(nil), raw...),
		Basename: basename,
	}
}

// Upload is the persisted handle of a Record.
type Upload struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ID derives a profile id from a file path: the basename with Suffix removed.
// Files in different directories that share a basename map to the same id.
func ID(file string) string {
	return strings.TrimSuffix(path.Base(strings.ReplaceAll(file, "\\", "/")), Suffix)
}

// Profiler hands out the result of the currently active profiling run.
type Profiler interface {
	Results(ctx context.Context) (*Record, error)
}
