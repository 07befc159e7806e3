// Package sanitize cleans and inspects user supplied free text before it is stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MaxLength caps the size of any sanitised free-text field, in runes.
const MaxLength = 1000

var (
	strict = bluemonday.StrictPolicy()

	javascriptScheme = regexp.MustCompile(`(?i)javascript:`)
	eventHandler     = regexp.MustCompile(`(?i)on\w+\s*=`)

	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script\b[^<]*(?:(?:[^<]|<[^/])*)</script>`),
		javascriptScheme,
		eventHandler,
		regexp.MustCompile(`(?i)<iframe`),
		regexp.MustCompile(`(?i)<object`),
		regexp.MustCompile(`(?i)<embed`),
		regexp.MustCompile(`(?i)eval\s*\(`),
		regexp.MustCompile(`(?i)expression\s*\(`),
	}
)

// DetectXSS reports whether input carries markup or script injection patterns.
func DetectXSS(input string) bool {
	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

// Text strips markup, script schemes and inline handlers, trims and truncates to MaxLength.
func Text(input string) string {
	cleaned := html.UnescapeString(strict.Sanitize(input))
	cleaned = javascriptScheme.ReplaceAllString(cleaned, "")
	cleaned = eventHandler.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > MaxLength {
		cleaned = string(runes[:MaxLength])
	}
	return cleaned
}

// OptionalText sanitises a pointer field; blank results collapse to nil.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
