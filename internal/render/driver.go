// Package render defines the browser-automation driver used by discovery and
// the page-processing loop, plus its rod-backed implementation.
package render

import (
	"context"
	"errors"
	"time"
)

// ErrPageNavigated signals that the page navigated away while an operation
// was in flight. Callers use it to stop scroll expansion cleanly instead of
// treating the page as failed.
var ErrPageNavigated = errors.New("page navigated during operation")

// Driver owns the browser process and opens per-page sessions.
type Driver interface {
	// Open creates a rendering session for one page. Sessions must always be
	// closed, success or not.
	Open(ctx context.Context) (Session, error)
	// Close releases the browser.
	Close() error
}

// Session is one page context. All operations act on the currently rendered
// document.
type Session interface {
	// Render navigates to url, waits for content to load within timeout, and
	// returns the final URL after redirects plus the rendered HTML.
	Render(ctx context.Context, url string, timeout time.Duration) (finalURL, html string, err error)
	// ScrollToBottom scrolls the page to its bottom. Returns ErrPageNavigated
	// if the page navigated away mid-scroll.
	ScrollToBottom() error
	// ElementCount counts elements matching the selector.
	ElementCount(selector string) (int, error)
	// ClickFirstVisible clicks the first visible element matching the
	// selector whose text contains text (case-insensitive; empty text
	// matches any), reporting whether anything was clicked.
	ClickFirstVisible(selector, text string) (bool, error)
	// FirstVisibleHref returns the href of the first visible element
	// matching selector and text, or "" if none matches.
	FirstVisibleHref(selector, text string) (string, error)
	// QueryLinks returns the href attribute of every element matching the
	// selector. An empty selector means all anchors.
	QueryLinks(selector string) ([]string, error)
	// WaitVisible waits up to timeout for the selector to appear.
	WaitVisible(selector string, timeout time.Duration) error
	// CurrentURL reports the page's URL after client-side navigation.
	CurrentURL() (string, error)
	// HTML serializes the current document.
	HTML() (string, error)
	// Close closes the page context.
	Close() error
}
