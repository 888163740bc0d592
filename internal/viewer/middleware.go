// Package viewer serves stored profiles under /app_profiler.
//
// Middleware classifies each request path into one of four routes: the index
// listing, the viewer backend, a single profile, or pass-through to the
// wrapped handler. Viewer and single-profile rendering are delegated to a
// Backend chosen at construction time.
package viewer

import (
	"errors"
	"html"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/appprofiler/internal/metrics"
	"github.com/JakeFAU/appprofiler/internal/storage"
)

// ErrNotImplemented reports that no backend serves the route. It signals a
// deployment mistake and is answered with 501.
var ErrNotImplemented = errors.New("viewer backend not implemented")

// Backend renders the viewer and single profiles.
type Backend interface {
	Viewer(w http.ResponseWriter, r *http.Request, subpath string) error
	Show(w http.ResponseWriter, r *http.Request, id string) error
}

// Middleware routes /app_profiler requests and passes everything else to next.
type Middleware struct {
	next    http.Handler
	store   storage.Provider
	backend Backend
	logger  *zap.Logger
}

// NewMiddleware wraps next. A nil backend behaves like Unconfigured.
func NewMiddleware(next http.Handler, store storage.Provider, backend Backend, logger *zap.Logger) *Middleware {
	if backend == nil {
		backend = Unconfigured{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if next == nil {
		next = http.NotFoundHandler()
	}
	return &Middleware{
		next:    next,
		store:   store,
		backend: backend,
		logger:  logger,
	}
}

// Wrap adapts NewMiddleware to the func(http.Handler) http.Handler shape chi uses.
func Wrap(store storage.Provider, backend Backend, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return NewMiddleware(next, store, backend, logger)
	}
}

// ServeHTTP dispatches on the classified route.
func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := Classify(r.URL.Path)
	metrics.ObserveRoute(route.Kind.String())

	var err error
	switch route.Kind {
	case RouteIndex:
		err = m.index(w, r)
	case RouteViewer:
		err = m.backend.Viewer(w, r, route.Arg)
	case RouteShow:
		err = m.backend.Show(w, r, route.Arg)
	default:
		m.next.ServeHTTP(w, r)
		return
	}
	m.fail(w, r, route, err)
}

func (m *Middleware) fail(w http.ResponseWriter, r *http.Request, route Route, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("route", route.Kind.String()),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, ErrNotImplemented):
		m.logger.Error("no viewer backend configured", fields...)
		http.Error(w, "viewer backend not configured", http.StatusNotImplemented)
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "profile not found", http.StatusNotFound)
	default:
		m.logger.Error("viewer request failed", fields...)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (m *Middleware) index(w http.ResponseWriter, r *http.Request) error {
	var refs []storage.FileRef
	if m.store != nil {
		var err error
		refs, err = m.store.List(r.Context())
		if err != nil {
			return err
		}
	}

	var b strings.Builder
	b.WriteString("<h1>Profiles</h1>")
	for _, ref := range refs {
		id := ref.ID()
		b.WriteString("\n<p>\n  <a href=\"/app_profiler/")
		b.WriteString(url.PathEscape(id))
		b.WriteString("\">\n    ")
		b.WriteString(html.EscapeString(id))
		b.WriteString("\n  </a>\n</p>")
	}
	return Render(b.String()).Apply(w)
}
