// internal/browser/cdp/driver.go

// Package cdp implements the page driver contract on a real Chrome
// instance via chromedp. Element queries run as a single JavaScript
// evaluation returning a JSON descriptor, so candidate enumeration does
// not pay one CDP round trip per attribute.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/locfix/api/schemas"
	"github.com/xkilldash9x/locfix/internal/browser"
	"github.com/xkilldash9x/locfix/internal/config"
)

// Driver drives one Chrome tab. It owns the allocator and browser
// contexts; Close releases both.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// descriptor mirrors the JSON shape produced by the query script.
type descriptor struct {
	Tag       string              `json:"tag"`
	Attrs     map[string]string   `json:"attrs"`
	Text      string              `json:"text"`
	InnerHTML string              `json:"innerHTML"`
	Parent    *schemas.ParentInfo `json:"parent"`
	SelfXPath string              `json:"selfXPath"`
}

// descriptorJS serializes a DOM node into a descriptor, including an
// id-anchored, sibling-indexed XPath that addresses exactly that node.
// Later actions (click, clear, type) target the element through it.
const descriptorJS = `
function __locfixSelfXPath(node) {
    const parts = [];
    for (let n = node; n && n.nodeType === Node.ELEMENT_NODE; n = n.parentElement) {
        const tag = n.tagName.toLowerCase();
        if (n.id) {
            parts.push("//*[@id='" + n.id + "']");
            break;
        }
        let idx = 1;
        for (let prev = n.previousElementSibling; prev; prev = prev.previousElementSibling) {
            if (prev.tagName.toLowerCase() === tag) idx++;
        }
        parts.push(tag + '[' + idx + ']');
    }
    parts.reverse();
    if (parts.length === 0) return '/';
    if (parts[0].startsWith('//')) {
        return parts.length === 1 ? parts[0] : parts[0] + '/' + parts.slice(1).join('/');
    }
    return '/' + parts.join('/');
}
function __locfixDescriptor(node) {
    const attrs = {};
    for (const a of node.attributes) attrs[a.name] = a.value;
    let parent = null;
    const p = node.parentElement;
    if (p) {
        parent = {
            tag: p.tagName.toLowerCase(),
            id: p.getAttribute('id') || '',
            class: p.getAttribute('class') || '',
            name: p.getAttribute('name') || '',
            'data-testid': p.getAttribute('data-testid') || ''
        };
    }
    return {
        tag: node.tagName.toLowerCase(),
        attrs: attrs,
        text: (node.innerText || node.textContent || '').trim(),
        innerHTML: (node.innerHTML || '').trim(),
        parent: parent,
        selfXPath: __locfixSelfXPath(node)
    };
}`

// New launches a browser and returns a driver bound to a fresh tab. The
// parent context bounds the life of the whole browser process.
func New(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	d := &Driver{
		cfg:         cfg,
		logger:      logger.Named("cdp"),
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}

	// Start the browser now so the first operation doesn't absorb the
	// launch cost inside its own timeout.
	startCtx, cancel := context.WithTimeout(browserCtx, cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		d.Close()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	return d, nil
}

// Close tears down the tab and the browser process.
func (d *Driver) Close() {
	if d.cancelCtx != nil {
		d.cancelCtx()
	}
	if d.cancelAlloc != nil {
		d.cancelAlloc()
	}
}

// run executes chromedp actions under the per-operation timeout, honoring
// cancellation of the caller's context.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(d.browserCtx, d.cfg.OperationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

// Navigate loads a URL and waits for it to settle.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	opCtx, cancel := context.WithTimeout(d.browserCtx, d.cfg.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	d.logger.Debug("Navigating.", zap.String("url", url))
	if err := chromedp.Run(opCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Title implements browser.PageDriver.
func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	if err := d.run(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title: %w", err)
	}
	return title, nil
}

// evaluate runs a script and decodes its JSON result into out.
func (d *Driver) evaluate(ctx context.Context, script string, out *json.RawMessage) error {
	return d.run(ctx, chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithSilent(true)
	}))
}

// FindElement implements browser.PageDriver.
func (d *Driver) FindElement(ctx context.Context, locator string) (browser.Element, error) {
	script := fmt.Sprintf(`(function(loc, isXPath) {
%s
    let node = null;
    if (isXPath) {
        const r = document.evaluate(loc, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
        node = r.singleNodeValue;
    } else {
        node = document.querySelector(loc);
    }
    if (!node || node.nodeType !== Node.ELEMENT_NODE) return null;
    return __locfixDescriptor(node);
})(%s, %t)`, descriptorJS, jsonEncode(locator), browser.IsXPath(locator))

	var res json.RawMessage
	if err := d.evaluate(ctx, script, &res); err != nil {
		return nil, fmt.Errorf("evaluating locator %q: %w", locator, err)
	}
	if len(res) == 0 || string(res) == "null" {
		return nil, fmt.Errorf("locator %q: %w", locator, browser.ErrNotFound)
	}

	var desc descriptor
	if err := json.Unmarshal(res, &desc); err != nil {
		return nil, fmt.Errorf("decoding element descriptor for %q: %w", locator, err)
	}
	return &element{driver: d, desc: desc}, nil
}

// FindElements implements browser.PageDriver.
func (d *Driver) FindElements(ctx context.Context, tag string) ([]browser.Element, error) {
	script := fmt.Sprintf(`(function(tag) {
%s
    return Array.from(document.getElementsByTagName(tag)).map(__locfixDescriptor);
})(%s)`, descriptorJS, jsonEncode(tag))

	var res json.RawMessage
	if err := d.evaluate(ctx, script, &res); err != nil {
		return nil, fmt.Errorf("enumerating %q elements: %w", tag, err)
	}

	var descs []descriptor
	if err := json.Unmarshal(res, &descs); err != nil {
		return nil, fmt.Errorf("decoding element descriptors for %q: %w", tag, err)
	}
	elements := make([]browser.Element, 0, len(descs))
	for _, desc := range descs {
		elements = append(elements, &element{driver: d, desc: desc})
	}
	return elements, nil
}

// element is a materialized page element plus the XPath actions use to
// reach it again.
type element struct {
	driver *Driver
	desc   descriptor
}

func (e *element) Tag() string                  { return e.desc.Tag }
func (e *element) Attribute(name string) string { return e.desc.Attrs[name] }
func (e *element) Text() string                 { return e.desc.Text }
func (e *element) InnerHTML() string            { return e.desc.InnerHTML }

func (e *element) Parent() (*schemas.ParentInfo, bool) {
	if e.desc.Parent == nil {
		return nil, false
	}
	return e.desc.Parent, true
}

func (e *element) Click(ctx context.Context) error {
	if err := e.driver.run(ctx, chromedp.Click(e.desc.SelfXPath, chromedp.BySearch)); err != nil {
		return fmt.Errorf("clicking %s: %w", e.desc.SelfXPath, err)
	}
	return nil
}

func (e *element) Clear(ctx context.Context) error {
	if err := e.driver.run(ctx, chromedp.Clear(e.desc.SelfXPath, chromedp.BySearch)); err != nil {
		return fmt.Errorf("clearing %s: %w", e.desc.SelfXPath, err)
	}
	return nil
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := e.driver.run(ctx, chromedp.SendKeys(e.desc.SelfXPath, text, chromedp.BySearch)); err != nil {
		return fmt.Errorf("typing into %s: %w", e.desc.SelfXPath, err)
	}
	return nil
}

// jsonEncode safely embeds a Go value into a script as a JS literal.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
