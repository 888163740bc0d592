// Package settings holds the process-wide runtime configuration consulted by
// the upload coordinator and the viewer.
//
// Values are installed at boot and read on every request. Override exists for
// controlled contexts such as tests; it swaps the values for every concurrent
// reader, so overriding while serving live traffic is unsupported.
package settings

import (
	"strings"
	"sync"

	"github.com/JakeFAU/appprofiler/internal/profile"
)

// Default header names.
const (
	DefaultProfileHeader     = "X-Profile-Id"
	DefaultProfileDataHeader = "X-Profile-Data"
)

// URLFormatter maps an upload to the hosted view location.
type URLFormatter func(profile.Upload) string

// Values is one snapshot of the runtime configuration.
type Values struct {
	Autoredirect      bool
	URLFormatter      URLFormatter
	ProfileHeader     string
	ProfileDataHeader string
}

// Defaults returns values with the default header names and no formatter.
func Defaults() Values {
	return Values{
		ProfileHeader:     DefaultProfileHeader,
		ProfileDataHeader: DefaultProfileDataHeader,
	}
}

// Store guards the current Values.
type Store struct {
	mu     sync.RWMutex
	values Values
}

// NewStore returns a Store holding v.
func NewStore(v Values) *Store {
	return &Store{values: v}
}

// Load returns a copy of the current values.
func (s *Store) Load() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// Set replaces the current values.
func (s *Store) Set(v Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = v
}

// Override applies mutate to a copy of the current values, installs it for the
// duration of run and restores the previous values afterwards, including when
// run panics.
func (s *Store) Override(mutate func(*Values), run func()) {
	prev := s.Load()
	next := prev
	mutate(&next)
	s.Set(next)
	defer s.Set(prev)
	run()
}

// TemplateFormatter builds a URLFormatter from a template containing the
// {name} and/or {url} placeholders. An empty template yields nil.
func TemplateFormatter(tmpl string) URLFormatter {
	if strings.TrimSpace(tmpl) == "" {
		return nil
	}
	return func(u profile.Upload) string {
		return strings.NewReplacer("{name}", u.Name, "{url}", u.URL).Replace(tmpl)
	}
}
