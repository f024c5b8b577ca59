// Package htmlsanitize cleans rich-text bodies of groups and people before
// they are stored or rendered.
package htmlsanitize

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func bodyPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "p", "span", "div")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, iframes and unsafe URLs while
// keeping ordinary formatting.
func Sanitize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return bodyPolicy().Sanitize(s)
}

// SanitizeToHTML sanitizes s and marks the result safe for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}
