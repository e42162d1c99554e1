package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by every bounded wait that runs out of time.
var ErrTimeout = errors.New("timed out")

// State is the element state a Wait call blocks on.
type State int

const (
	// Attached means at least one match exists in the DOM.
	Attached State = iota
	// Visible means at least one match is rendered with a non-empty box.
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "attached"
}

// Locator identifies page elements by CSS selector, optionally narrowed to
// elements whose text contains Text (case-insensitive).
type Locator struct {
	CSS  string
	Text string
}

// CSS returns a locator for a plain CSS selector.
func CSS(selector string) Locator {
	return Locator{CSS: selector}
}

// HasText narrows l to elements whose text contains text.
func (l Locator) HasText(text string) Locator {
	l.Text = text
	return l
}

func (l Locator) String() string {
	if l.Text == "" {
		return l.CSS
	}
	return fmt.Sprintf("%s:has-text(%q)", l.CSS, l.Text)
}

// ElementInfo is a diagnostic description of a matched element.
type ElementInfo struct {
	Tag         string `json:"tag"`
	ID          string `json:"id"`
	Class       string `json:"class"`
	Text        string `json:"text,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Visible     bool   `json:"visible"`
}

// Cookie is a browser cookie detached from any protocol representation.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"http_only"`
}

// Page is the single live browser tab every component borrows.
//
// Indexed methods address the index-th match of a locator in document order,
// as returned by Texts.
type Page interface {
	// Navigate loads url and waits until at most two requests are in flight.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// ClickNavigate clicks the first match and waits for the resulting navigation to settle.
	ClickNavigate(ctx context.Context, loc Locator, timeout time.Duration) error
	// WaitNetworkIdle waits until no requests are in flight.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error
	// Wait blocks until a match reaches state, failing with ErrTimeout.
	Wait(ctx context.Context, loc Locator, state State, timeout time.Duration) error

	Count(ctx context.Context, loc Locator) (int, error)
	Texts(ctx context.Context, loc Locator) ([]string, error)
	Click(ctx context.Context, loc Locator, index int) error
	// Type enters text into the first match of a plain CSS locator.
	Type(ctx context.Context, loc Locator, text string) error
	// FillNearest finds the closest ancestor of the index-th match matching
	// group, then overwrites the value of its first descendant matching field.
	// It reports false when no such field exists.
	FillNearest(ctx context.Context, loc Locator, index int, group, field, value string) (bool, error)
	ScrollIntoView(ctx context.Context, loc Locator) error
	Describe(ctx context.Context, loc Locator) ([]ElementInfo, error)

	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Location(ctx context.Context) (string, error)

	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error

	Close() error
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func timeoutError(what string, d time.Duration) error {
	return fmt.Errorf("%w after %v waiting for %s", ErrTimeout, d, what)
}
