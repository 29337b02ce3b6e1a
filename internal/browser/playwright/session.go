package playwright

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	playwright "github.com/playwright-community/playwright-go"

	"github.com/kailas-cloud/transparencia/internal/browser"
)

// Session is one browser, one context and its primary page.
type Session struct {
	id        string
	browser   playwright.Browser
	context   playwright.BrowserContext
	page      *Page
	timeout   float64
	onRelease func()

	mu   sync.Mutex
	stop func() bool

	once       sync.Once
	releaseErr error
}

var _ browser.Session = (*Session)(nil)

// ID returns the session id used in logs.
func (s *Session) ID() string { return s.id }

// Page returns the primary page.
func (s *Session) Page() browser.Page { return s.page }

// NewPage opens a secondary page in the session's context.
func (s *Session) NewPage() (browser.Page, error) {
	p, err := s.context.NewPage()
	if err != nil {
		return nil, wrapErr("new page", err)
	}
	p.SetDefaultTimeout(s.timeout)
	return &Page{page: p}, nil
}

// setStop records the deregistration of the release-on-cancel hook.
func (s *Session) setStop(stop func() bool) {
	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()
}

// Release closes the context and the browser. Only the first call does work.
func (s *Session) Release() error {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		var errs []error
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if s.onRelease != nil {
			s.onRelease()
		}
		s.releaseErr = errors.Join(errs...)
	})
	return s.releaseErr
}

// Page adapts playwright.Page.
type Page struct {
	page playwright.Page
}

var _ browser.Page = (*Page)(nil)

// Navigate navigates the page to url.
func (p *Page) Navigate(url string, opts browser.NavigateOptions) error {
	gotoOpts := playwright.PageGotoOptions{Timeout: optionalMs(opts.Timeout)}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if _, err := p.page.Goto(url, gotoOpts); err != nil {
		return wrapErr("navigate "+url, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (p *Page) Click(selector string, opts browser.ClickOptions) error {
	return clickLocator(p.page.Locator(selector).First(), "click "+selector, opts)
}

// ClickText clicks the first element containing text.
func (p *Page) ClickText(text string, opts browser.ClickOptions) error {
	return clickLocator(p.page.GetByText(text).First(), "click text "+text, opts)
}

// Type focuses selector and types text key by key.
func (p *Page) Type(selector, text string, opts browser.TypeOptions) error {
	err := p.page.Locator(selector).First().PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay:   optionalMs(opts.Delay),
		Timeout: optionalMs(opts.Timeout),
	})
	if err != nil {
		return wrapErr("type into "+selector, err)
	}
	return nil
}

// AwaitResponse runs trigger and returns the first response whose URL matches pattern.
func (p *Page) AwaitResponse(
	pattern *regexp.Regexp, trigger func() error, opts browser.WaitOptions,
) (browser.Response, error) {
	resp, err := p.page.ExpectResponse(pattern, trigger, playwright.PageExpectResponseOptions{
		Timeout: optionalMs(opts.Timeout),
	})
	if err != nil {
		return browser.Response{}, wrapErr("await response "+pattern.String(), err)
	}
	body, err := resp.Body()
	if err != nil {
		return browser.Response{}, wrapErr("read response body", err)
	}
	return browser.Response{URL: resp.URL(), Status: resp.Status(), Body: body}, nil
}

// Content returns the page HTML.
func (p *Page) Content() (string, error) {
	html, err := p.page.Content()
	if err != nil {
		return "", wrapErr("page content", err)
	}
	return html, nil
}

// WaitForSelector waits until the first element matching selector is visible.
func (p *Page) WaitForSelector(selector string, opts browser.WaitOptions) error {
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: optionalMs(opts.Timeout),
	})
	if err != nil {
		return wrapErr("wait for "+selector, err)
	}
	return nil
}

// WaitForLoadState waits for the page to reach state.
func (p *Page) WaitForLoadState(state browser.LoadState, opts browser.WaitOptions) error {
	ls := playwright.LoadState(state)
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &ls,
		Timeout: optionalMs(opts.Timeout),
	})
	if err != nil {
		return wrapErr("wait for load state "+string(state), err)
	}
	return nil
}

// Locator returns a locator for selector.
func (p *Page) Locator(selector string) browser.Locator {
	return &Locator{loc: p.page.Locator(selector), desc: selector}
}

// GetByText returns a locator for elements containing text.
func (p *Page) GetByText(text string) browser.Locator {
	return &Locator{loc: p.page.GetByText(text), desc: "text=" + text}
}

// Close closes the page.
func (p *Page) Close() error {
	if err := p.page.Close(); err != nil {
		return wrapErr("close page", err)
	}
	return nil
}

// Locator adapts playwright.Locator.
type Locator struct {
	loc  playwright.Locator
	desc string
}

var _ browser.Locator = (*Locator)(nil)

// Locator narrows to descendants matching selector.
func (l *Locator) Locator(selector string) browser.Locator {
	return &Locator{loc: l.loc.Locator(selector), desc: l.desc + " >> " + selector}
}

// GetByText narrows to descendants containing text.
func (l *Locator) GetByText(text string) browser.Locator {
	return &Locator{loc: l.loc.GetByText(text), desc: l.desc + " >> text=" + text}
}

// First narrows to the first match.
func (l *Locator) First() browser.Locator {
	return &Locator{loc: l.loc.First(), desc: l.desc + " >> first"}
}

// All resolves every current match, in document order.
func (l *Locator) All() ([]browser.Locator, error) {
	locs, err := l.loc.All()
	if err != nil {
		return nil, wrapErr("resolve "+l.desc, err)
	}
	out := make([]browser.Locator, len(locs))
	for i, loc := range locs {
		out[i] = &Locator{loc: loc, desc: fmt.Sprintf("%s >> nth=%d", l.desc, i)}
	}
	return out, nil
}

// Count returns the number of current matches.
func (l *Locator) Count() (int, error) {
	n, err := l.loc.Count()
	if err != nil {
		return 0, wrapErr("count "+l.desc, err)
	}
	return n, nil
}

// InnerText returns the rendered text of the element.
func (l *Locator) InnerText() (string, error) {
	text, err := l.loc.InnerText()
	if err != nil {
		return "", wrapErr("inner text of "+l.desc, err)
	}
	return text, nil
}

// Attribute returns the value of attribute name, empty when absent.
func (l *Locator) Attribute(name string) (string, error) {
	v, err := l.loc.GetAttribute(name)
	if err != nil {
		return "", wrapErr("attribute "+name+" of "+l.desc, err)
	}
	return v, nil
}

func clickLocator(loc playwright.Locator, op string, opts browser.ClickOptions) error {
	err := loc.Click(playwright.LocatorClickOptions{
		Delay:   optionalMs(opts.Delay),
		Timeout: optionalMs(opts.Timeout),
	})
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}
