package catalog

import "strings"

// NormalizeSlug canonicalizes a title or caller-supplied slug: lower-case,
// spaces become underscores, apostrophes are dropped. Nothing else — no
// accent stripping, no collision suffixing; duplicate slugs are rejected by
// the unique constraint, not resolved here. Idempotent for any input.
func NormalizeSlug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "'", "")
}
