package viewer

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/JakeFAU/appprofiler/internal/profile"
	"github.com/JakeFAU/appprofiler/internal/storage"
)

// Unconfigured is the default backend. Both routes fail with ErrNotImplemented.
type Unconfigured struct{}

// Viewer implements Backend.
func (Unconfigured) Viewer(http.ResponseWriter, *http.Request, string) error {
	return fmt.Errorf("viewer: %w", ErrNotImplemented)
}

// Show implements Backend.
func (Unconfigured) Show(http.ResponseWriter, *http.Request, string) error {
	return fmt.Errorf("show: %w", ErrNotImplemented)
}

// Tagger computes strong entity tags for profile bytes.
type Tagger interface {
	ETag(data []byte) string
}

// RawBackend serves stored profile JSON directly and a small HTML page per profile.
type RawBackend struct {
	store  storage.Provider
	tagger Tagger
}

// NewRawBackend returns a RawBackend. tagger may be nil to disable ETags.
func NewRawBackend(store storage.Provider, tagger Tagger) *RawBackend {
	return &RawBackend{store: store, tagger: tagger}
}

// Show writes the raw profile bytes.
func (b *RawBackend) Show(w http.ResponseWriter, r *http.Request, id string) error {
	data, err := b.store.Fetch(r.Context(), id)
	if err != nil {
		return fmt.Errorf("show %q: %w", id, err)
	}
	if b.tagger != nil {
		etag := b.tagger.ETag(data)
		w.Header().Set("ETag", etag)
		if etagMatches(r.Header.Get("If-None-Match"), etag) {
			w.WriteHeader(http.StatusNotModified)
			return nil
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write profile %q: %w", id, err)
	}
	return nil
}

// Viewer renders a page describing the profile named by subpath.
func (b *RawBackend) Viewer(w http.ResponseWriter, r *http.Request, subpath string) error {
	id := profile.ID(subpath)
	data, err := b.store.Fetch(r.Context(), id)
	if err != nil {
		return fmt.Errorf("viewer %q: %w", id, err)
	}
	fragment := fmt.Sprintf(
		"<h1>%s</h1>\n<p>%d bytes</p>\n<p><a href=\"/app_profiler/%s\">Download raw profile</a></p>",
		html.EscapeString(id), len(data), url.PathEscape(id),
	)
	return Render(fragment).Apply(w)
}

// RemoteBackend hands profiles to a remotely hosted viewer application.
type RemoteBackend struct {
	baseURL       string
	profilePrefix string
	store         storage.Provider
}

// NewRemoteBackend returns a RemoteBackend. Profiles are addressed as
// <profilePrefix>/<listed path>. When store is nil the path is assumed to be
// <id>.json and unknown ids are not detected.
func NewRemoteBackend(baseURL, profilePrefix string, store storage.Provider) *RemoteBackend {
	return &RemoteBackend{
		baseURL:       strings.TrimRight(baseURL, "/"),
		profilePrefix: strings.TrimRight(profilePrefix, "/"),
		store:         store,
	}
}

// Show redirects to the remote viewer with the profile location in the fragment.
func (b *RemoteBackend) Show(w http.ResponseWriter, r *http.Request, id string) error {
	file := id + profile.Suffix
	if b.store != nil {
		ref, err := storage.Find(r.Context(), b.store, id)
		if err != nil {
			return fmt.Errorf("show %q: %w", id, err)
		}
		file = ref.Path
	}
	target := fmt.Sprintf("%s/#profileURL=%s&title=%s",
		b.baseURL,
		url.QueryEscape(b.profilePrefix+"/"+file),
		url.QueryEscape(id),
	)
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

// Viewer redirects viewer asset requests to the remote host.
func (b *RemoteBackend) Viewer(w http.ResponseWriter, r *http.Request, subpath string) error {
	target := b.baseURL + "/" + strings.TrimLeft(subpath, "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
	return nil
}

// etagMatches applies weak comparison of an If-None-Match list against etag.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
