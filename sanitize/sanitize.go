// Package sanitize filters CMS body HTML down to the markup the feed is
// allowed to carry.
package sanitize

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips everything outside a fixed allow-list of tags and
// attributes. Unknown or unsafe markup is dropped, never rejected.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	policy := bluemonday.NewPolicy()

	policy.AllowElements(
		"p", "br", "h2",
		"ul", "ol", "li",
		"em", "strong", "i", "b",
		"blockquote", "figure", "figcaption",
	)
	policy.AllowAttrs("href", "target", "id").OnElements("a")
	policy.AllowAttrs("src", "alt").OnElements("img")

	return &Sanitizer{policy: policy}
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
