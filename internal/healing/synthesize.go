// File: internal/healing/synthesize.go
package healing

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/locfix/internal/browser"
)

// SynthesisCandidates derives replacement locators for an element, most
// durable first: id, then data-testid, then placeholder, then visible
// text, then the tag.class shorthand, and finally the bare tag. The last
// entry always exists, so the result is never empty.
func SynthesisCandidates(el browser.Element) []string {
	tag := strings.ToLower(el.Tag())
	var out []string

	if id := el.Attribute("id"); id != "" {
		out = append(out, fmt.Sprintf("//*[@id=%s]", xpathLiteral(id)))
	}
	if testID := el.Attribute("data-testid"); testID != "" {
		out = append(out, fmt.Sprintf("//*[@data-testid=%s]", xpathLiteral(testID)))
	}
	if placeholder := el.Attribute("placeholder"); placeholder != "" {
		out = append(out, fmt.Sprintf("//%s[@placeholder=%s]", tag, xpathLiteral(placeholder)))
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		out = append(out, fmt.Sprintf("//%s[contains(text(), %s)]", tag, xpathLiteral(text)))
	}
	if class := el.Attribute("class"); strings.TrimSpace(class) != "" {
		out = append(out, tag+"."+strings.Join(strings.Fields(class), "."))
	}
	out = append(out, "//"+tag)
	return out
}

// Synthesize returns the single best replacement locator for an element.
func Synthesize(el browser.Element) string {
	return SynthesisCandidates(el)[0]
}

// xpathLiteral renders a value as an XPath string literal. XPath 1.0 has
// no escape sequence for quotes, so values containing a single quote are
// rebuilt with concat().
func xpathLiteral(value string) string {
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	parts := strings.Split(value, "'")
	pieces := make([]string, 0, 2*len(parts)-1)
	for i, part := range parts {
		if i > 0 {
			pieces = append(pieces, `"'"`)
		}
		pieces = append(pieces, "'"+part+"'")
	}
	return "concat(" + strings.Join(pieces, ", ") + ")"
}
