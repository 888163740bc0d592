package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/JakeFAU/appprofiler/internal/profile"
	profilestorage "github.com/JakeFAU/appprofiler/internal/storage"
)

const testBucket = "test-bucket"

// newTestBlobStore creates a BlobStore pointed at a fake GCS JSON API.
func newTestBlobStore(t *testing.T, handler http.Handler) *BlobStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := gcs.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, Config{Bucket: testBucket, Prefix: "profiles"})
	require.NoError(t, err)
	return store
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: testBucket})
	assert.Error(t, err)

	client, err := gcs.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close() //nolint:errcheck // test cleanup

	_, err = New(client, Config{})
	assert.Error(t, err)
}

func TestBlobStore_Upload(t *testing.T) {
	rec := profile.NewRecord("abc123", []byte(`{"samples":[1,2,3]}`), "abc123.json")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, fmt.Sprintf("/b/%s/o", testBucket))
		assert.Equal(t, "profiles/abc123.json", r.URL.Query().Get("name"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), string(rec.Raw))

		fmt.Fprintln(w, `{ "name": "profiles/abc123.json", "bucket": "`+testBucket+`" }`)
	})
	store := newTestBlobStore(t, handler)

	upload, err := store.Upload(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "abc123", upload.Name)
	assert.Equal(t, "https://storage.googleapis.com/test-bucket/profiles/abc123.json", upload.URL)
}

func TestBlobStore_Upload_Error(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	store := newTestBlobStore(t, handler)

	_, err := store.Upload(context.Background(), profile.NewRecord("x", []byte("{}"), "x.json"))
	assert.Error(t, err)
}

func TestBlobStore_List(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.Contains(r.URL.Path, fmt.Sprintf("/b/%s/o", testBucket)) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "profiles/", r.URL.Query().Get("prefix"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"kind":"storage#objects","items":[`+
			`{"name":"profiles/b.json","bucket":"test-bucket"},`+
			`{"name":"profiles/readme.txt","bucket":"test-bucket"},`+
			`{"name":"profiles/2024/a.json","bucket":"test-bucket"}]}`)
	})
	store := newTestBlobStore(t, handler)

	refs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "b.json", refs[0].Path)
	assert.Equal(t, "2024/a.json", refs[1].Path)
	assert.Equal(t, "a", refs[1].ID())
}

type requestLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, r.Method+" "+r.URL.Path)
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.seen...)
}

// listingHandler serves a fixed object listing and the bodies in objects.
func listingHandler(t *testing.T, objects map[string]string, names ...string) (http.Handler, *requestLog) {
	t.Helper()
	requests := &requestLog{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.add(r)
		if strings.HasPrefix(r.URL.Path, fmt.Sprintf("/b/%s/o", testBucket)) {
			items := make([]string, 0, len(names))
			for _, name := range names {
				items = append(items, `{"name":"`+name+`","bucket":"`+testBucket+`"}`)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintln(w, `{"kind":"storage#objects","items":[`+strings.Join(items, ",")+`]}`)
			return
		}
		body, ok := objects[strings.TrimPrefix(r.URL.Path, "/"+testBucket+"/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, body)
	}), requests
}

func TestBlobStore_FetchNested(t *testing.T) {
	handler, requests := listingHandler(t,
		map[string]string{"profiles/2024/a.json": `{"nested":true}`},
		"profiles/b.json", "profiles/2024/a.json",
	)
	store := newTestBlobStore(t, handler)

	data, err := store.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"nested":true}`, string(data))
	assert.Contains(t, requests.all(), "GET /test-bucket/profiles/2024/a.json")
}

func TestBlobStore_FetchFirstMatchWins(t *testing.T) {
	handler, _ := listingHandler(t,
		map[string]string{"profiles/a.json": "first", "profiles/2024/a.json": "second"},
		"profiles/a.json", "profiles/2024/a.json",
	)
	store := newTestBlobStore(t, handler)

	data, err := store.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestBlobStore_Fetch_NotFound(t *testing.T) {
	handler, requests := listingHandler(t, nil, "profiles/b.json")
	store := newTestBlobStore(t, handler)

	_, err := store.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, profilestorage.ErrNotFound)
	assert.Len(t, requests.all(), 1, "unlisted ids must not be read")
}

func TestBlobStore_Fetch_DeletedAfterListing(t *testing.T) {
	handler, _ := listingHandler(t, nil, "profiles/gone.json")
	store := newTestBlobStore(t, handler)

	_, err := store.Fetch(context.Background(), "gone")
	assert.ErrorIs(t, err, profilestorage.ErrNotFound)
}
