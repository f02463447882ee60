package properties

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug builds a URL-safe base from the title and area.
// Example: "3BR Villa", "Canggu" -> "3br-villa-canggu"
func MakeSlug(title, area string) string {
	base := strings.ToLower(strings.TrimSpace(title + " " + area))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-")
	}
	if base == "" {
		base = "property"
	}
	return base
}

// UniqueSlug appends a short random suffix so two listings with the same title
// never collide on the unique index.
func UniqueSlug(title, area string) string {
	return MakeSlug(title, area) + "-" + uuid.NewString()[:8]
}
