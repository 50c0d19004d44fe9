// browser/htmlpage/page.go

// Package htmlpage implements the page driver contract over a static
// HTML document. It backs offline replay of recorded pages and gives
// tests a driver with real locator evaluation and no browser process.
package htmlpage

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/browser"
)

// Page is a static document satisfying browser.PageDriver. Actions that
// would reach a real browser mutate the in-memory tree instead: Type and
// Clear edit the value attribute, Click records the target's XPath.
type Page struct {
	doc      *html.Node
	clicks   []string
	fixtures map[string]string
}

// New parses src into a Page.
func New(src string) (*Page, error) {
	p := &Page{fixtures: make(map[string]string)}
	if err := p.Load(src); err != nil {
		return nil, err
	}
	return p, nil
}

// AddFixture registers a document under a URL so scripted navigation can
// run against static pages.
func (p *Page) AddFixture(url, src string) {
	p.fixtures[url] = src
}

// Navigate loads the fixture registered for the URL.
func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, ok := p.fixtures[url]
	if !ok {
		return fmt.Errorf("no fixture registered for %q", url)
	}
	return p.Load(src)
}

// Load replaces the document, keeping the click record. Tests use it to
// simulate a page changing underneath a suite between runs.
func (p *Page) Load(src string) error {
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}
	p.doc = doc
	return nil
}

// Clicks returns the XPaths of every element clicked so far, in order.
func (p *Page) Clicks() []string { return p.clicks }

// Title implements browser.PageDriver.
func (p *Page) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	node, err := htmlquery.Query(p.doc, "//title")
	if err != nil || node == nil {
		return "", nil
	}
	return strings.TrimSpace(htmlquery.InnerText(node)), nil
}

// FindElement implements browser.PageDriver.
func (p *Page) FindElement(ctx context.Context, locator string) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	xp := locator
	if !browser.IsXPath(locator) {
		xp = browser.ShorthandToXPath(locator)
	}
	node, err := htmlquery.Query(p.doc, xp)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	if node == nil {
		return nil, fmt.Errorf("locator %q: %w", locator, browser.ErrNotFound)
	}
	return &element{page: p, node: node}, nil
}

// FindElements implements browser.PageDriver.
func (p *Page) FindElements(ctx context.Context, tag string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := htmlquery.QueryAll(p.doc, "//"+tag)
	if err != nil {
		return nil, fmt.Errorf("invalid tag %q: %w", tag, err)
	}
	elements := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &element{page: p, node: n})
	}
	return elements, nil
}

// element wraps one node of the page.
type element struct {
	page *Page
	node *html.Node
}

func (e *element) Tag() string {
	return strings.ToLower(e.node.Data)
}

func (e *element) Attribute(name string) string {
	return htmlquery.SelectAttr(e.node, name)
}

func (e *element) Text() string {
	return strings.TrimSpace(htmlquery.InnerText(e.node))
}

func (e *element) InnerHTML() string {
	return strings.TrimSpace(htmlquery.OutputHTML(e.node, false))
}

func (e *element) Parent() (*schemas.ParentInfo, bool) {
	for n := e.node.Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		return &schemas.ParentInfo{
			Tag:        strings.ToLower(n.Data),
			ID:         htmlquery.SelectAttr(n, "id"),
			Class:      htmlquery.SelectAttr(n, "class"),
			Name:       htmlquery.SelectAttr(n, "name"),
			DataTestID: htmlquery.SelectAttr(n, "data-testid"),
		}, true
	}
	return nil, false
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.page.clicks = append(e.page.clicks, uniqueXPath(e.node))
	return nil
}

func (e *element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.setAttr("value", "")
	return nil
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.setAttr("value", e.Attribute("value")+text)
	return nil
}

func (e *element) setAttr(key, val string) {
	for i := range e.node.Attr {
		if e.node.Attr[i].Key == key {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}
