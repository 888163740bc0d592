package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Route
	}{
		{path: "/app_profiler", want: Route{Kind: RouteIndex}},
		{path: "/app_profiler/", want: Route{Kind: RouteIndex}},
		{path: "/app_profiler/viewer/x/y", want: Route{Kind: RouteViewer, Arg: "x/y"}},
		{path: "/app_profiler/viewer/", want: Route{Kind: RouteViewer, Arg: ""}},
		{path: "/app_profiler/abc123", want: Route{Kind: RouteShow, Arg: "abc123"}},
		{path: "/app_profiler/nested/abc123", want: Route{Kind: RouteShow, Arg: "nested/abc123"}},
		{path: "/app_profiler/viewer", want: Route{Kind: RouteShow, Arg: "viewer"}},
		{path: "/unrelated/path", want: Route{Kind: RoutePassThrough}},
		{path: "/app_profilerx", want: Route{Kind: RoutePassThrough}},
		{path: "/prefix/app_profiler/abc", want: Route{Kind: RoutePassThrough}},
		{path: "", want: Route{Kind: RoutePassThrough}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.path))
			assert.Equal(t, tt.want, Classify(tt.path), "classification must be stateless")
		})
	}
}

func TestRouteKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "index", RouteIndex.String())
	assert.Equal(t, "viewer", RouteViewer.String())
	assert.Equal(t, "show", RouteShow.String())
	assert.Equal(t, "passthrough", RoutePassThrough.String())
}
