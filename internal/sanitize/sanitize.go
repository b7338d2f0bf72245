// Package sanitize cleans user supplied text before it is stored or echoed back.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ':' is kept so chat context like "time: night" survives
	disallowed = regexp.MustCompile(`[^\p{Han}a-zA-Z0-9,.¡!¿?$%&()#+;/'" _:-]`)
	tags       = regexp.MustCompile(`<[^>]*>?`)
	strict     = bluemonday.StrictPolicy()
)

// Input keeps a small set of characters, strips any markup and trims the result.
func Input(s string) string {
	if s == "" {
		return ""
	}
	cleaned := disallowed.ReplaceAllString(s, "")
	cleaned = html.UnescapeString(strict.Sanitize(cleaned))
	cleaned = strings.TrimSpace(cleaned)
	return tags.ReplaceAllString(cleaned, "")
}
