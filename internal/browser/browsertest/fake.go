// Package browsertest provides scriptable in-memory browser fakes for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/kailas-cloud/transparencia/internal/browser"
)

// ErrNoElement is returned when a locator resolves to nothing.
var ErrNoElement = errors.New("no element matches locator")

// TextSelector is the child key GetByText looks up.
func TextSelector(text string) string { return "text=" + text }

// Element is a node of the fake DOM. Children are keyed by selector.
type Element struct {
	Text     string
	Attrs    map[string]string
	Children map[string][]*Element
	ClickErr error
	TextErr  error

	mu     sync.Mutex
	clicks int
}

// El builds an element with text.
func El(text string) *Element { return &Element{Text: text} }

// Attr sets an attribute and returns e.
func (e *Element) Attr(name, value string) *Element {
	if e.Attrs == nil {
		e.Attrs = make(map[string]string)
	}
	e.Attrs[name] = value
	return e
}

// Child appends children under selector and returns e.
func (e *Element) Child(selector string, children ...*Element) *Element {
	if e.Children == nil {
		e.Children = make(map[string][]*Element)
	}
	e.Children[selector] = append(e.Children[selector], children...)
	return e
}

// Clicks returns how many times the element was clicked.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) click() error {
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	return e.ClickErr
}

// Locator resolves lazily against the fake DOM.
type Locator struct {
	resolve func() []*Element
	desc    string
}

var _ browser.Locator = (*Locator)(nil)

// Locator narrows to children registered under selector.
func (l *Locator) Locator(selector string) browser.Locator {
	parent := l.resolve
	return &Locator{
		desc: l.desc + " >> " + selector,
		resolve: func() []*Element {
			var out []*Element
			for _, e := range parent() {
				out = append(out, e.Children[selector]...)
			}
			return out
		},
	}
}

// GetByText narrows to children registered under TextSelector(text).
func (l *Locator) GetByText(text string) browser.Locator {
	return l.Locator(TextSelector(text))
}

// First narrows to the first match.
func (l *Locator) First() browser.Locator {
	parent := l.resolve
	return &Locator{
		desc: l.desc + " >> first",
		resolve: func() []*Element {
			all := parent()
			if len(all) == 0 {
				return nil
			}
			return all[:1]
		},
	}
}

// All returns one locator per current match.
func (l *Locator) All() ([]browser.Locator, error) {
	all := l.resolve()
	out := make([]browser.Locator, len(all))
	for i, e := range all {
		out[i] = &Locator{
			desc:    fmt.Sprintf("%s >> nth=%d", l.desc, i),
			resolve: func() []*Element { return []*Element{e} },
		}
	}
	return out, nil
}

// Count returns the number of matches.
func (l *Locator) Count() (int, error) { return len(l.resolve()), nil }

// InnerText returns the text of the single match.
func (l *Locator) InnerText() (string, error) {
	e, err := l.one()
	if err != nil {
		return "", err
	}
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.Text, nil
}

// Attribute returns an attribute of the single match.
func (l *Locator) Attribute(name string) (string, error) {
	e, err := l.one()
	if err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (l *Locator) one() (*Element, error) {
	all := l.resolve()
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", l.desc, ErrNoElement)
	}
	return all[0], nil
}

// Page is a fake tab. Selectors resolve against Root's children.
type Page struct {
	Root *Element
	HTML string

	// Response is returned by AwaitResponse after the trigger succeeds.
	Response browser.Response
	// Errors maps "op:arg" keys (e.g. "navigate:https://x", "click:#btn",
	// "type:#termo", "wait:#main", "load", "await", "content", "close") to failures.
	Errors map[string]error
	// OnWait runs before WaitForSelector returns, to mutate the DOM.
	OnWait func(selector string)

	mu          sync.Mutex
	navigations []string
	clicks      []string
	typed       map[string]string
	closes      int
}

var _ browser.Page = (*Page)(nil)

// NewPage creates an empty fake page.
func NewPage() *Page {
	return &Page{Root: &Element{}}
}

func (p *Page) fail(key string) error {
	if p.Errors == nil {
		return nil
	}
	return p.Errors[key]
}

func (p *Page) root() *Locator {
	return &Locator{desc: "page", resolve: func() []*Element { return []*Element{p.Root} }}
}

// Navigate records url.
func (p *Page) Navigate(url string, _ browser.NavigateOptions) error {
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	p.mu.Unlock()
	return p.fail("navigate:" + url)
}

// Click clicks the first element under selector, or only records the click
// when no element is registered for it.
func (p *Page) Click(selector string, _ browser.ClickOptions) error {
	p.mu.Lock()
	p.clicks = append(p.clicks, selector)
	p.mu.Unlock()
	if err := p.fail("click:" + selector); err != nil {
		return err
	}
	if els := p.Root.Children[selector]; len(els) > 0 {
		return els[0].click()
	}
	return nil
}

// ClickText clicks by text.
func (p *Page) ClickText(text string, opts browser.ClickOptions) error {
	return p.Click(TextSelector(text), opts)
}

// Type records text typed into selector.
func (p *Page) Type(selector, text string, _ browser.TypeOptions) error {
	p.mu.Lock()
	if p.typed == nil {
		p.typed = make(map[string]string)
	}
	p.typed[selector] += text
	p.mu.Unlock()
	return p.fail("type:" + selector)
}

// AwaitResponse runs trigger then returns Response.
func (p *Page) AwaitResponse(
	_ *regexp.Regexp, trigger func() error, _ browser.WaitOptions,
) (browser.Response, error) {
	if err := trigger(); err != nil {
		return browser.Response{}, err
	}
	if err := p.fail("await"); err != nil {
		return browser.Response{}, err
	}
	return p.Response, nil
}

// Content returns HTML.
func (p *Page) Content() (string, error) {
	if err := p.fail("content"); err != nil {
		return "", err
	}
	return p.HTML, nil
}

// WaitForSelector fails when configured, else returns immediately.
func (p *Page) WaitForSelector(selector string, _ browser.WaitOptions) error {
	if p.OnWait != nil {
		p.OnWait(selector)
	}
	return p.fail("wait:" + selector)
}

// WaitForLoadState fails when configured, else returns immediately.
func (p *Page) WaitForLoadState(_ browser.LoadState, _ browser.WaitOptions) error {
	return p.fail("load")
}

// Locator resolves selector against Root.
func (p *Page) Locator(selector string) browser.Locator {
	return p.root().Locator(selector)
}

// GetByText resolves TextSelector(text) against Root.
func (p *Page) GetByText(text string) browser.Locator {
	return p.root().GetByText(text)
}

// Close counts closes.
func (p *Page) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return p.fail("close")
}

// Navigations returns the URLs navigated to, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Clicks returns the page-level clicked selectors, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Typed returns the text typed into selector.
func (p *Page) Typed(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typed[selector]
}

// Closes returns how many times Close was called.
func (p *Page) Closes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// Session is a fake session. Secondary pages are handed out from Pages in order.
type Session struct {
	Primary    *Page
	Pages      []*Page
	NewPageErr error
	ReleaseErr error

	mu       sync.Mutex
	opened   int
	releases int
}

var _ browser.Session = (*Session)(nil)

// ID returns a fixed id.
func (s *Session) ID() string { return "fake-session" }

// Page returns Primary.
func (s *Session) Page() browser.Page { return s.Primary }

// NewPage returns the next secondary page.
func (s *Session) NewPage() (browser.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.NewPageErr != nil {
		return nil, s.NewPageErr
	}
	if s.opened >= len(s.Pages) {
		return nil, fmt.Errorf("no fake page left after %d: %w", s.opened, browser.ErrClosed)
	}
	p := s.Pages[s.opened]
	s.opened++
	return p, nil
}

// Release counts releases.
func (s *Session) Release() error {
	s.mu.Lock()
	s.releases++
	s.mu.Unlock()
	return s.ReleaseErr
}

// Releases returns how many times Release was called.
func (s *Session) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

// Opener hands out Session and counts acquisitions.
type Opener struct {
	Session *Session
	Err     error

	mu       sync.Mutex
	acquires int
}

// Acquire returns Session.
func (o *Opener) Acquire(ctx context.Context) (browser.Session, error) {
	o.mu.Lock()
	o.acquires++
	o.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Session, nil
}

// Acquires returns how many times Acquire was called.
func (o *Opener) Acquires() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acquires
}
