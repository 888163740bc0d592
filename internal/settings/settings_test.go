package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/appprofiler/internal/profile"
)

func TestOverrideRestores(t *testing.T) {
	t.Parallel()

	store := NewStore(Defaults())
	store.Override(func(v *Values) {
		v.Autoredirect = true
		v.ProfileHeader = "X-Other"
	}, func() {
		got := store.Load()
		assert.True(t, got.Autoredirect)
		assert.Equal(t, "X-Other", got.ProfileHeader)
	})

	assert.Equal(t, Defaults().ProfileHeader, store.Load().ProfileHeader)
	assert.False(t, store.Load().Autoredirect)
}

func TestOverrideRestoresOnPanic(t *testing.T) {
	t.Parallel()

	store := NewStore(Defaults())
	require.Panics(t, func() {
		store.Override(func(v *Values) { v.Autoredirect = true }, func() {
			panic("boom")
		})
	})
	assert.False(t, store.Load().Autoredirect)
}

func TestOverrideNests(t *testing.T) {
	t.Parallel()

	store := NewStore(Defaults())
	formatter := TemplateFormatter("https://foo.com/prefix/{name}")
	store.Override(func(v *Values) { v.Autoredirect = true }, func() {
		store.Override(func(v *Values) { v.URLFormatter = formatter }, func() {
			got := store.Load()
			assert.True(t, got.Autoredirect)
			require.NotNil(t, got.URLFormatter)
		})
		assert.Nil(t, store.Load().URLFormatter)
		assert.True(t, store.Load().Autoredirect)
	})
	assert.False(t, store.Load().Autoredirect)
}

func TestTemplateFormatter(t *testing.T) {
	t.Parallel()

	assert.Nil(t, TemplateFormatter(""))
	assert.Nil(t, TemplateFormatter("   "))

	f := TemplateFormatter("https://viewer.example/{name}#profileURL={url}")
	require.NotNil(t, f)
	got := f(profile.Upload{Name: "abc", URL: "https://storage.example/abc.json"})
	assert.Equal(t, "https://viewer.example/abc#profileURL=https://storage.example/abc.json", got)
}
