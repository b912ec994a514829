package model

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces     = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slug turns a title into a url friendly string.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugDashes.ReplaceAllString(s, "-")
}
