package interact

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// fakeElement is a scriptable stand-in for a page element. Click and script
// behavior defaults to success; tests override via clickFn/scriptFn.
type fakeElement struct {
	mu      sync.Mutex
	visible bool
	attrs   map[string]string
	calls   []string

	rect    browser.Rect
	rectErr error

	clickFn  func(browser.ClickOptions) error
	scriptFn func() error
}

var _ browser.Element = (*fakeElement)(nil)

func newFakeElement(visible bool) *fakeElement {
	return &fakeElement{
		visible: visible,
		attrs:   map[string]string{},
		rect:    browser.Rect{X: 10, Y: 10, Width: 100, Height: 40},
	}
}

func (f *fakeElement) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeElement) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeElement) setVisible(v bool) {
	f.mu.Lock()
	f.visible = v
	f.mu.Unlock()
}

func (f *fakeElement) setAttr(name, value string) {
	f.mu.Lock()
	f.attrs[name] = value
	f.mu.Unlock()
}

func (f *fakeElement) Visible(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible, nil
}

func (f *fakeElement) Rect(ctx context.Context) (browser.Rect, error) {
	if f.rectErr != nil {
		return browser.Rect{}, f.rectErr
	}
	return f.rect, nil
}

func (f *fakeElement) Click(ctx context.Context, opts browser.ClickOptions) error {
	switch {
	case opts.ClickCount > 1:
		f.record("double-click")
	case opts.Force:
		f.record("forced-click")
	default:
		f.record("click")
	}
	if f.clickFn != nil {
		return f.clickFn(opts)
	}
	return nil
}

func (f *fakeElement) ScriptActivate(ctx context.Context) error {
	f.record("script")
	if f.scriptFn != nil {
		return f.scriptFn()
	}
	return nil
}

func (f *fakeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.attrs[name]
	return v, ok, nil
}

func (f *fakeElement) RemoveAttribute(ctx context.Context, name string) error {
	f.mu.Lock()
	delete(f.attrs, name)
	f.calls = append(f.calls, "remove-attr")
	f.mu.Unlock()
	return nil
}

// fakeSession maps compiled query expressions to elements.
type fakeSession struct {
	mu             sync.Mutex
	elements       map[string]browser.Element
	cssUnsupported bool
	clickAtErr     error
	clickAts       int
	concealCounts  map[string]int
	domReady       []bool
	inFlight       []int
	probeErr       error
}

var _ browser.Session = (*fakeSession)(nil)

func newFakeSession() *fakeSession {
	return &fakeSession{
		elements:      map[string]browser.Element{},
		concealCounts: map[string]int{},
	}
}

// add registers el under every compiled query form of desc, so the element
// resolves no matter which form the engine reaches for.
func (f *fakeSession) add(desc TargetDescriptor, el browser.Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range desc.Queries() {
		f.elements[q.Expr] = el
	}
}

func (f *fakeSession) ID() string { return "fake" }

func (f *fakeSession) Navigate(ctx context.Context, url string) error { return nil }

func (f *fakeSession) Location(ctx context.Context) (string, error) { return "about:blank", nil }

func (f *fakeSession) Find(ctx context.Context, by browser.By, expr string) (browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cssUnsupported && by == browser.ByCSS {
		return nil, browser.ErrSelectorUnsupported
	}
	if el, ok := f.elements[expr]; ok {
		return el, nil
	}
	return nil, browser.ErrNoMatch
}

func (f *fakeSession) ClickAt(ctx context.Context, x, y float64) error {
	f.mu.Lock()
	f.clickAts++
	f.mu.Unlock()
	return f.clickAtErr
}

func (f *fakeSession) clickAtCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clickAts
}

// Conceal reports the staged count once, then zero: once hidden, a match
// stays hidden.
func (f *fakeSession) Conceal(ctx context.Context, by browser.By, expr string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.concealCounts[expr]
	f.concealCounts[expr] = 0
	return n, nil
}

func (f *fakeSession) DOMReady(ctx context.Context) (bool, error) {
	if f.probeErr != nil {
		return false, f.probeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.domReady) == 0 {
		return true, nil
	}
	v := f.domReady[0]
	if len(f.domReady) > 1 {
		f.domReady = f.domReady[1:]
	}
	return v, nil
}

func (f *fakeSession) InFlight(ctx context.Context) (int, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inFlight) == 0 {
		return 0, nil
	}
	v := f.inFlight[0]
	if len(f.inFlight) > 1 {
		f.inFlight = f.inFlight[1:]
	}
	return v, nil
}

func (f *fakeSession) Close(ctx context.Context) error { return nil }

func newTestEngine(t *testing.T, sess browser.Session, tun Tunables) *Engine {
	t.Helper()
	return NewEngine(sess, Config{
		Pacing: Pacing{
			ClickHoldMin: time.Millisecond,
			ClickHoldMax: 2 * time.Millisecond,
			PrePressMin:  time.Millisecond,
			PrePressMax:  2 * time.Millisecond,
		},
		Tunables: tun,
		Logger:   zaptest.NewLogger(t),
		Rand:     rand.New(rand.NewSource(1)),
	})
}

func fastTunables() Tunables {
	return Tunables{
		PollInterval:   10 * time.Millisecond,
		StepBudget:     2 * time.Second,
		DOMBudget:      200 * time.Millisecond,
		IdleBudget:     150 * time.Millisecond,
		MarkerGrace:    40 * time.Millisecond,
		MarkerPatience: 60 * time.Millisecond,
		PostActivate:   time.Millisecond,
		OverlayPasses:  3,
	}
}
