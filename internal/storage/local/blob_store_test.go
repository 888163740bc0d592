// Package local_test tests the local filesystem profile store.
package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/storage"
	"github.com/JakeFAU/appprofiler/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("CreatesMissingBaseDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "profiles")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		tempFile, err := os.CreateTemp("", "testfile")
		require.NoError(t, err)
		t.Cleanup(func() {
			removeErr := os.Remove(tempFile.Name())
			if removeErr != nil && !os.IsNotExist(removeErr) {
				t.Fatalf("failed to remove temp file: %v", removeErr)
			}
		})

		_, err = local.New(local.Config{BaseDir: tempFile.Name()})
		assert.Error(t, err)
	})
}

func TestUpload(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	t.Run("ValidUpload", func(t *testing.T) {
		rec := profile.NewRecord("abc123", []byte(`{"a":1}`), "abc123.json")
		upload, err := store.Upload(context.Background(), rec)
		require.NoError(t, err)

		assert.Equal(t, "abc123", upload.Name)
		assert.Equal(t, "file://"+filepath.Join(tempDir, "abc123.json"), upload.URL)

		// #nosec G304 -- test reads from the controlled temp directory.
		data, err := os.ReadFile(filepath.Join(tempDir, "abc123.json"))
		require.NoError(t, err)
		assert.Equal(t, rec.Raw, data)
	})

	t.Run("EmptyBasename", func(t *testing.T) {
		_, err := store.Upload(context.Background(), profile.NewRecord("x", nil, ""))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.Upload(context.Background(), profile.NewRecord("x", nil, "../escape.json"))
		assert.Error(t, err)
	})
}

func TestListAndFetch(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	ctx := context.Background()
	for _, name := range []string{"b.json", "a.json", "nested/c.json"} {
		_, err := store.Upload(ctx, profile.NewRecord(profile.ID(name), []byte(name), name))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("skip"), 0o600))

	refs, err := store.List(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "nested/c.json", refs[2].Path)

	data, err := store.Fetch(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "nested/c.json", string(data))

	_, err = store.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
