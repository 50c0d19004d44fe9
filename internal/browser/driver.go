// File: internal/browser/driver.go

// Package browser defines the page driver boundary the healing engine
// works against. A driver exposes just enough of a live page to capture
// golden snapshots, enumerate replacement candidates and act on the
// element a resolution settles on. The chromedp implementation lives in
// the cdp subpackage; htmlpage implements the same contract over a static
// document for offline replay and tests.
package browser

import (
	"context"
	"errors"
	"strings"

	"github.com/xkilldash9x/locfix/api/schemas"
)

// ErrNotFound is returned by FindElement when the locator matches no
// element on the page. It is the recoverable failure that triggers
// healing; everything else a driver returns is treated as fatal.
var ErrNotFound = errors.New("browser: element not found")

// PageDriver is the engine's view of one live page.
type PageDriver interface {
	// Title returns the current document title.
	Title(ctx context.Context) (string, error)
	// FindElement resolves a locator to the first matching element, or
	// ErrNotFound when nothing matches.
	FindElement(ctx context.Context, locator string) (Element, error)
	// FindElements returns every element with the given tag name. A page
	// without such elements yields an empty slice and no error.
	FindElements(ctx context.Context, tag string) ([]Element, error)
}

// Element is a materialized view of one page element. Drivers read the
// element in a single pass, so attribute access never touches the page
// again; actions go back through the driver.
type Element interface {
	Tag() string
	// Attribute returns the named attribute, or "" when absent.
	Attribute(name string) string
	// Text returns the element's visible text, whitespace-trimmed.
	Text() string
	// InnerHTML returns the element's inner markup, whitespace-trimmed.
	InnerHTML() string
	// Parent returns the captured attributes of the immediate parent
	// element, or false for root or detached elements.
	Parent() (*schemas.ParentInfo, bool)

	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
}

// IsXPath reports whether a locator is an XPath expression rather than
// the tag.class shorthand the synthesizer can emit. XPath locators start
// with a slash, a parenthesized group or an explicit axis.
func IsXPath(locator string) bool {
	return strings.HasPrefix(locator, "/") ||
		strings.HasPrefix(locator, "(") ||
		strings.HasPrefix(locator, ".")
}

// ShorthandToXPath converts a tag.class1.class2 locator into the
// equivalent XPath. Class order is insignificant: each class becomes its
// own token-containment predicate. A bare tag converts to //tag.
func ShorthandToXPath(locator string) string {
	parts := strings.Split(locator, ".")
	var b strings.Builder
	b.WriteString("//")
	b.WriteString(parts[0])
	for _, cls := range parts[1:] {
		if cls == "" {
			continue
		}
		b.WriteString("[contains(concat(' ', normalize-space(@class), ' '), ' ")
		b.WriteString(cls)
		b.WriteString(" ')]")
	}
	return b.String()
}

// Capture records the stable attributes of an element and its parent as
// a golden snapshot. Inner markup is captured only for container tags.
func Capture(el Element) *schemas.ElementSnapshot {
	snap := &schemas.ElementSnapshot{
		Tag:        strings.ToLower(el.Tag()),
		ID:         el.Attribute("id"),
		Class:      el.Attribute("class"),
		Name:       el.Attribute("name"),
		DataTestID: el.Attribute("data-testid"),
		Text:       strings.TrimSpace(el.Text()),
	}
	if schemas.CapturesInnerHTML(snap.Tag) {
		snap.InnerHTML = strings.TrimSpace(el.InnerHTML())
	}
	if parent, ok := el.Parent(); ok {
		snap.Parent = parent
	}
	return snap
}
