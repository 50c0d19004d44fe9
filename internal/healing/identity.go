// File: internal/healing/identity.go
package healing

import (
	"strings"
	"unicode/utf8"

	"github.com/xkilldash9x/locfix/api/schemas"
)

// locatorSanitizer strips the path and predicate syntax out of a locator
// so it can serve as a file-safe identifier fragment.
var locatorSanitizer = strings.NewReplacer("/", "_", "[", "", "]", "", "@", "")

// PageKey derives the golden table namespace from a page title.
func PageKey(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

// DeriveIdentifier builds the stable identifier a golden snapshot is
// stored under. It is a pure function of its inputs: the same page,
// locator and snapshot always produce the same identifier.
//
// When a snapshot is supplied its most distinctive attribute wins:
// data-testid first, then id or name, then tag plus classes, then tag
// plus a short text fragment. Without a snapshot, or when none of those
// attributes exist, the sanitized locator itself is the discriminator.
func DeriveIdentifier(pageKey, locator string, snap *schemas.ElementSnapshot) string {
	prefix := pageKey + "_golden_"

	if snap != nil {
		if snap.DataTestID != "" {
			return prefix + snap.DataTestID
		}
		if candidate := firstNonEmpty(snap.ID, snap.Name); candidate != "" {
			return prefix + candidate
		}
		if classes := strings.TrimSpace(snap.Class); classes != "" {
			return prefix + snap.Tag + "_" + strings.ReplaceAll(classes, " ", "_")
		}
		if text := strings.TrimSpace(snap.Text); text != "" && utf8.RuneCountInString(text) < 20 {
			return prefix + snap.Tag + "_" + strings.ReplaceAll(text, " ", "_")
		}
	}

	return prefix + locatorSanitizer.Replace(locator)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
