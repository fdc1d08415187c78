// Package sanitize implements the single filename-sanitisation rule
// shared by the pipeline engine (directory/file names) and the
// toolchain facade (chapter output filenames), so both apply the exact
// same rule rather than two independently-drifting copies.
package sanitize

import "strings"

// illegal holds the characters forbidden in a path segment on the
// union of common filesystems, matching original_source's
// sanitize_segment.
const illegal = `<>":/\|?*`

// Segment replaces any illegal or control character with '_', then
// trims surrounding whitespace and leading and trailing '.'. Idempotent:
// Segment(Segment(s)) == Segment(s).
func Segment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || strings.ContainsRune(illegal, r) {
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	out = strings.Trim(out, ".")
	return out
}
