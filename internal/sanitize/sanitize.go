// Package sanitize strips markup outside a fixed allow-list before
// server-rendered HTML reaches a client.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var allowedTags = []string{
	"strong", "em", "b", "i", "p", "code", "pre", "tt", "samp", "kbd", "var", "sub",
	"sup", "dfn", "cite", "big", "small", "address", "hr", "br", "div", "span", "h1",
	"h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "dl", "dt", "dd", "abbr", "acronym",
	"a", "img", "blockquote", "del", "ins",
}

// AllowedTags returns a copy of the allow-list applied to every rendered fragment.
func AllowedTags() []string {
	return append([]string(nil), allowedTags...)
}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Policy returns the process-wide policy. It is built once and must not be
// modified by callers.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(allowedTags...)
		p.AllowAttrs("href", "title").OnElements("a")
		p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
		p.AllowAttrs("title").OnElements("abbr", "acronym")
		p.RequireParseableURLs(true)
		p.AllowRelativeURLs(true)
		p.AllowURLSchemes("http", "https", "mailto")
		policy = p
	})
	return policy
}

// HTML sanitizes an HTML fragment.
func HTML(fragment string) string {
	return Policy().Sanitize(fragment)
}
