// Package htmlsanitize wraps bluemonday policies for user-submitted
// content. Quote text, person names, and group names are stored as
// plain text; anything that looks like markup is stripped on the way in.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain strips all HTML from user input and trims surrounding
// whitespace. Used for names and quote text.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
