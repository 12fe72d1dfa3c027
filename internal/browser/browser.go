// Package browser defines the engine-agnostic session surface the
// interaction code drives. Implementations live in the chromium (CDP) and
// static (DOM-only) subpackages; tests supply fakes.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
)

var (
	// ErrNoMatch reports that a query found no element.
	ErrNoMatch = errors.New("no element matches query")
	// ErrSelectorUnsupported reports that the backend cannot evaluate the
	// query language. Callers fall through to the descriptor's other form.
	ErrSelectorUnsupported = errors.New("selector language not supported by this backend")
	// ErrNotHittable reports that an unforced click found another element
	// covering the target's click point.
	ErrNotHittable = errors.New("element is covered at its click point")
	// ErrUnsupported reports an operation the backend cannot model, such as
	// coordinate clicks against a static document.
	ErrUnsupported = errors.New("operation not supported by this backend")
	// ErrSessionClosed reports use of a session after Close.
	ErrSessionClosed = errors.New("session is closed")
)

// By selects the query language for Find and Conceal.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Rect is an element's border box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// At maps box-relative fractions (0..1 on each axis) to viewport coordinates.
func (r Rect) At(fx, fy float64) (float64, float64) {
	return r.X + r.Width*fx, r.Y + r.Height*fy
}

// ClickOptions tunes element clicks.
type ClickOptions struct {
	// Force skips the hit-target check that would otherwise fail the click
	// when another element covers the target.
	Force bool
	// ClickCount above 1 dispatches a multi-click (2 = double click).
	ClickCount int
	// Hold is the press-to-release gap. Zero means the backend's default.
	Hold time.Duration
}

// Element is a live handle to one matched node. Handles stay valid until
// navigation replaces the document.
type Element interface {
	// Visible reports whether the node currently renders: non-empty box and
	// not display:none / visibility:hidden / opacity 0.
	Visible(ctx context.Context) (bool, error)

	// Rect returns the border box. Fails with ErrNoMatch if the node left
	// the document.
	Rect(ctx context.Context) (Rect, error)

	// Click presses and releases on the node. Unforced clicks verify the
	// click point actually hits the node and fail with ErrNotHittable
	// otherwise.
	Click(ctx context.Context, opts ClickOptions) error

	// ScriptActivate fires the activation sequence (pointerdown, pointerup,
	// click) from script, bypassing the input pipeline entirely.
	ScriptActivate(ctx context.Context) error

	// Attribute reads one attribute; ok is false when it is absent.
	Attribute(ctx context.Context, name string) (value string, ok bool, err error)

	// RemoveAttribute deletes one attribute if present.
	RemoveAttribute(ctx context.Context, name string) error
}

// Session is one disposable browsing session: a single page in a dedicated
// browser profile that is torn down with the session.
type Session interface {
	// ID is the identity's session ID.
	ID() string

	// Navigate loads the URL and returns once the main document committed.
	Navigate(ctx context.Context, url string) error

	// Location returns the current document URL.
	Location(ctx context.Context) (string, error)

	// Find locates the first element matching the query, or ErrNoMatch.
	// Backends that cannot evaluate the language return
	// ErrSelectorUnsupported.
	Find(ctx context.Context, by By, expr string) (Element, error)

	// ClickAt presses and releases the pointer at viewport coordinates,
	// independent of any element.
	ClickAt(ctx context.Context, x, y float64) error

	// Conceal hides every element matching the query and reports how many
	// it touched. Hiding an already-hidden element is a no-op.
	Conceal(ctx context.Context, by By, expr string) (int, error)

	// DOMReady reports whether the document finished parsing.
	DOMReady(ctx context.Context) (bool, error)

	// InFlight returns the number of outstanding network requests.
	InFlight(ctx context.Context) (int, error)

	// Close tears the session down. Safe to call more than once.
	Close(ctx context.Context) error
}

// Launcher creates sessions presenting the given identity.
type Launcher interface {
	Launch(ctx context.Context, identity fingerprint.SessionIdentity) (Session, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, identity fingerprint.SessionIdentity) (Session, error)

func (f LauncherFunc) Launch(ctx context.Context, identity fingerprint.SessionIdentity) (Session, error) {
	return f(ctx, identity)
}
