package viewer

import "regexp"

// RouteKind is the outcome of classifying a request path.
type RouteKind int

// Route kinds.
const (
	RoutePassThrough RouteKind = iota
	RouteIndex
	RouteViewer
	RouteShow
)

func (k RouteKind) String() string {
	switch k {
	case RouteIndex:
		return "index"
	case RouteViewer:
		return "viewer"
	case RouteShow:
		return "show"
	default:
		return "passthrough"
	}
}

// Route is a classified path. Arg holds the viewer subpath or the profile id.
type Route struct {
	Kind RouteKind
	Arg  string
}

type rule struct {
	pattern *regexp.Regexp
	kind    RouteKind
}

// rules are evaluated in order. The viewer prefix must precede the generic
// show pattern, which would otherwise capture it.
var rules = []rule{
	{pattern: regexp.MustCompile(`^/app_profiler/?$`), kind: RouteIndex},
	{pattern: regexp.MustCompile(`^/app_profiler/viewer/(.*)$`), kind: RouteViewer},
	{pattern: regexp.MustCompile(`^/app_profiler/(.*)$`), kind: RouteShow},
}

// Classify maps a request path to a Route. It is pure.
func Classify(path string) Route {
	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		route := Route{Kind: r.kind}
		if len(m) > 1 {
			route.Arg = m[1]
		}
		return route
	}
	return Route{Kind: RoutePassThrough}
}
