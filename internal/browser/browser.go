// Package browser defines the browser automation capability consumed by the
// portal adapter. Implementations live in subpackages.
package browser

import (
	"errors"
	"regexp"
)

// ErrTimeout marks an engine operation that exceeded its deadline.
var ErrTimeout = errors.New("browser timeout")

// ErrClosed marks an operation on a released session or closed page.
var ErrClosed = errors.New("browser session closed")

// LoadState is a page lifecycle milestone.
type LoadState string

// Load states.
const (
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
)

// Session owns one browser context and its primary page.
type Session interface {
	// ID identifies the session in logs.
	ID() string
	// Page returns the primary page.
	Page() Page
	// NewPage opens a secondary page in the same context. The caller closes it.
	NewPage() (Page, error)
	// Release closes the page, context and browser. Safe to call more than
	// once; only the first call does work.
	Release() error
}

// Page is a single browser tab.
type Page interface {
	Navigate(url string, opts NavigateOptions) error
	Click(selector string, opts ClickOptions) error
	ClickText(text string, opts ClickOptions) error
	Type(selector, text string, opts TypeOptions) error
	// AwaitResponse runs trigger and waits for a response whose URL matches pattern.
	AwaitResponse(pattern *regexp.Regexp, trigger func() error, opts WaitOptions) (Response, error)
	Content() (string, error)
	WaitForSelector(selector string, opts WaitOptions) error
	WaitForLoadState(state LoadState, opts WaitOptions) error
	Locator(selector string) Locator
	GetByText(text string) Locator
	Close() error
}

// Locator resolves to zero or more elements, lazily.
type Locator interface {
	Locator(selector string) Locator
	GetByText(text string) Locator
	First() Locator
	All() ([]Locator, error)
	Count() (int, error)
	InnerText() (string, error)
	Attribute(name string) (string, error)
}

// Response is a captured network response.
type Response struct {
	URL    string
	Status int
	Body   []byte
}

// NavigateOptions configures page navigation.
type NavigateOptions struct {
	// WaitUntil is a LoadState; empty means the engine default ("load").
	WaitUntil LoadState

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// ClickOptions configures clicks.
type ClickOptions struct {
	// Delay between mousedown and mouseup in milliseconds
	Delay float64

	// Timeout in milliseconds
	Timeout float64
}

// TypeOptions configures key-by-key typing.
type TypeOptions struct {
	// Delay between key presses in milliseconds
	Delay float64

	// Timeout in milliseconds
	Timeout float64
}

// WaitOptions configures waits.
type WaitOptions struct {
	// Timeout in milliseconds
	Timeout float64
}
