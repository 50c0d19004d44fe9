// browser/htmlpage/page_test.go
package htmlpage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/locfix/internal/browser"
)

const loginPage = `<!DOCTYPE html>
<html>
<head><title>Login Page</title></head>
<body>
  <div id="form-wrap" class="container main">
    <form id="login" name="login-form">
      <input type="email" id="email" name="email" class="form-control email-input" placeholder="Email">
      <input type="password" id="password" name="password" class="form-control">
      <button id="submit" data-testid="login-submit" class="btn btn-primary">Sign In</button>
    </form>
  </div>
</body>
</html>`

func mustPage(t *testing.T, src string) *Page {
	t.Helper()
	p, err := New(src)
	require.NoError(t, err)
	return p
}

func TestPageTitle(t *testing.T) {
	p := mustPage(t, loginPage)
	title, err := p.Title(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Login Page", title)

	empty := mustPage(t, `<html><body></body></html>`)
	title, err = empty.Title(context.Background())
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestFindElement(t *testing.T) {
	p := mustPage(t, loginPage)
	ctx := context.Background()

	t.Run("xpath by id", func(t *testing.T) {
		el, err := p.FindElement(ctx, `//*[@id='email']`)
		require.NoError(t, err)
		assert.Equal(t, "input", el.Tag())
		assert.Equal(t, "email", el.Attribute("name"))
	})

	t.Run("xpath by text containment", func(t *testing.T) {
		el, err := p.FindElement(ctx, `//button[contains(text(), 'Sign In')]`)
		require.NoError(t, err)
		assert.Equal(t, "login-submit", el.Attribute("data-testid"))
	})

	t.Run("tag.class shorthand", func(t *testing.T) {
		el, err := p.FindElement(ctx, "button.btn.btn-primary")
		require.NoError(t, err)
		assert.Equal(t, "submit", el.Attribute("id"))
	})

	t.Run("not found is ErrNotFound", func(t *testing.T) {
		_, err := p.FindElement(ctx, `//*[@id='no-such-element']`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, browser.ErrNotFound))
	})
}

func TestFindElements(t *testing.T) {
	p := mustPage(t, loginPage)

	inputs, err := p.FindElements(context.Background(), "input")
	require.NoError(t, err)
	assert.Len(t, inputs, 2)

	none, err := p.FindElements(context.Background(), "textarea")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestElementAccessors(t *testing.T) {
	p := mustPage(t, loginPage)

	el, err := p.FindElement(context.Background(), `//*[@id='submit']`)
	require.NoError(t, err)

	assert.Equal(t, "button", el.Tag())
	assert.Equal(t, "Sign In", el.Text())
	assert.Equal(t, "btn btn-primary", el.Attribute("class"))
	assert.Empty(t, el.Attribute("placeholder"))

	parent, ok := el.Parent()
	require.True(t, ok)
	assert.Equal(t, "form", parent.Tag)
	assert.Equal(t, "login", parent.ID)
	assert.Equal(t, "login-form", parent.Name)

	div, err := p.FindElement(context.Background(), `//*[@id='form-wrap']`)
	require.NoError(t, err)
	assert.Contains(t, div.InnerHTML(), `<form id="login"`)
}

func TestCaptureSnapshot(t *testing.T) {
	p := mustPage(t, loginPage)

	el, err := p.FindElement(context.Background(), `//*[@id='email']`)
	require.NoError(t, err)

	snap := browser.Capture(el)
	require.NoError(t, snap.Validate())
	assert.Equal(t, "input", snap.Tag)
	assert.Equal(t, "email", snap.ID)
	assert.Equal(t, "email", snap.Name)
	assert.Equal(t, "form-control email-input", snap.Class)
	assert.Empty(t, snap.InnerHTML, "inner markup is only captured for containers")
	require.NotNil(t, snap.Parent)
	assert.Equal(t, "form", snap.Parent.Tag)

	div, err := p.FindElement(context.Background(), `//*[@id='form-wrap']`)
	require.NoError(t, err)
	divSnap := browser.Capture(div)
	assert.NotEmpty(t, divSnap.InnerHTML)
}

func TestActions(t *testing.T) {
	p := mustPage(t, loginPage)
	ctx := context.Background()

	el, err := p.FindElement(ctx, `//*[@id='email']`)
	require.NoError(t, err)

	require.NoError(t, el.Type(ctx, "user@example.com"))
	assert.Equal(t, "user@example.com", el.Attribute("value"))

	require.NoError(t, el.Type(ctx, "x"))
	assert.Equal(t, "user@example.comx", el.Attribute("value"), "typing appends")

	require.NoError(t, el.Clear(ctx))
	assert.Empty(t, el.Attribute("value"))

	btn, err := p.FindElement(ctx, "button.btn")
	require.NoError(t, err)
	require.NoError(t, btn.Click(ctx))
	require.Len(t, p.Clicks(), 1)
	assert.Equal(t, `//*[@id='submit']`, p.Clicks()[0])
}

func TestLoad(t *testing.T) {
	p := mustPage(t, loginPage)
	ctx := context.Background()

	_, err := p.FindElement(ctx, `//*[@id='email']`)
	require.NoError(t, err)

	require.NoError(t, p.Load(`<html><head><title>Login Page</title></head><body>
	  <input id="email-v2" name="email" class="form-control email-input"></body></html>`))

	_, err = p.FindElement(ctx, `//*[@id='email']`)
	assert.True(t, errors.Is(err, browser.ErrNotFound))

	el, err := p.FindElement(ctx, `//*[@id='email-v2']`)
	require.NoError(t, err)
	assert.Equal(t, "email", el.Attribute("name"))
}

func TestUniqueXPath(t *testing.T) {
	p := mustPage(t, `<html><body>
	  <div><span>one</span><span>two</span></div>
	  <div id="anchor"><p>text</p></div>
	</body></html>`)

	spans, err := p.FindElements(context.Background(), "span")
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "/html[1]/body[1]/div[1]/span[2]", uniqueXPath(spans[1].(*element).node))

	para, err := p.FindElement(context.Background(), "//p")
	require.NoError(t, err)
	assert.Equal(t, `//*[@id='anchor']/p[1]`, uniqueXPath(para.(*element).node))
}
