package util

import (
	"regexp"
	"strings"
)

var (
	slugSpaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	slugInvalid  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify lower-cases s, collapses whitespace runs into "-" and drops
// everything outside [a-z0-9-]. Uniqueness is not enforced.
func Slugify(s string) string {
	slug := strings.ToLower(s)
	slug = slugSpaceRun.ReplaceAllString(slug, "-")
	return slugInvalid.ReplaceAllString(slug, "")
}
