package chromium

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// session is a single tab in a dedicated browser process.
type session struct {
	id     string
	logger *zap.Logger

	ctx         context.Context // tab context; the session's own lifetime
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	profileDir  string
	teardown    time.Duration

	mu       sync.Mutex
	closed   bool
	inflight map[string]struct{}

	closeOnce sync.Once
	closeErr  error
}

var _ browser.Session = (*session)(nil)

func (s *session) ID() string { return s.id }

// watchNetwork keeps a ledger of outstanding requests so InFlight can answer
// without a round trip. A main-frame navigation starts a fresh ledger; the
// aborted loads of the old document would otherwise linger as phantom
// in-flight entries.
func (s *session) watchNetwork() {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			s.mu.Lock()
			s.inflight[string(e.RequestID)] = struct{}{}
			s.mu.Unlock()
		case *network.EventLoadingFinished:
			s.mu.Lock()
			delete(s.inflight, string(e.RequestID))
			s.mu.Unlock()
		case *network.EventLoadingFailed:
			s.mu.Lock()
			delete(s.inflight, string(e.RequestID))
			s.mu.Unlock()
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				s.mu.Lock()
				s.inflight = make(map[string]struct{})
				s.mu.Unlock()
			}
		}
	})
}

func (s *session) alive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	return nil
}

// run executes chromedp actions under the combined session and caller
// lifetimes.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := s.alive(); err != nil {
		return err
	}
	opCtx, release := browser.CombineContext(s.ctx, ctx)
	defer release()

	err := chromedp.Run(opCtx, actions...)
	if err != nil && ctx.Err() != nil {
		// Prefer the caller's deadline or cancellation over chromedp's
		// wrapped rendition of it.
		return ctx.Err()
	}
	return err
}

// evalJSON evaluates script in the page and returns the raw JSON result.
// A JS null comes back as the literal "null".
func (s *session) evalJSON(ctx context.Context, script string) (json.RawMessage, error) {
	var res json.RawMessage
	err := s.run(ctx, chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

func (s *session) Find(ctx context.Context, by browser.By, expr string) (browser.Element, error) {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		return el ? true : null;
	})()`, lookupExpr(by, expr))

	res, err := s.evalJSON(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", expr, err)
	}
	if string(res) == "null" {
		return nil, browser.ErrNoMatch
	}
	return &element{sess: s, by: by, expr: expr}, nil
}

func (s *session) ClickAt(ctx context.Context, x, y float64) error {
	err := s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return dispatchClick(c, x, y, 1, 0)
	}))
	if err != nil {
		return fmt.Errorf("click at (%.0f,%.0f): %w", x, y, err)
	}
	return nil
}

func (s *session) Conceal(ctx context.Context, by browser.By, expr string) (int, error) {
	script := fmt.Sprintf(`(() => {
		const targets = %s;
		let hidden = 0;
		for (const el of targets) {
			if (window.getComputedStyle(el).display === 'none') continue;
			el.style.setProperty('display', 'none', 'important');
			hidden++;
		}
		return hidden;
	})()`, collectExpr(by, expr))

	res, err := s.evalJSON(ctx, script)
	if err != nil {
		return 0, fmt.Errorf("conceal %q: %w", expr, err)
	}
	var hidden int
	if err := json.Unmarshal(res, &hidden); err != nil {
		return 0, fmt.Errorf("conceal %q: unexpected result %s: %w", expr, string(res), err)
	}
	return hidden, nil
}

func (s *session) DOMReady(ctx context.Context) (bool, error) {
	res, err := s.evalJSON(ctx, `document.readyState !== 'loading'`)
	if err != nil {
		return false, fmt.Errorf("read document readiness: %w", err)
	}
	return string(res) == "true", nil
}

func (s *session) InFlight(ctx context.Context) (int, error) {
	if err := s.alive(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight), nil
}

// Close stops the browser process and removes the profile directory. It is
// idempotent; later calls return the first result.
func (s *session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		timeout := s.teardown
		if deadline, ok := ctx.Deadline(); ok {
			if until := time.Until(deadline); until < timeout {
				timeout = until
			}
		}

		// chromedp.Cancel blocks until the browser process exits, so run it
		// off to the side and give up after the teardown window. A detached
		// context will not do here; Cancel needs the original tab context.
		stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- chromedp.Cancel(s.ctx)
		}()

		select {
		case err := <-done:
			if err != nil && err != context.Canceled {
				s.closeErr = fmt.Errorf("stop browser: %w", err)
			}
		case <-ctx.Done():
			s.closeErr = fmt.Errorf("stop browser: %w", ctx.Err())
		case <-stopCtx.Done():
			s.closeErr = fmt.Errorf("stop browser: no exit after %v", timeout)
		}

		s.cancelTab()
		s.cancelAlloc()

		if err := os.RemoveAll(s.profileDir); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("remove profile dir: %w", err)
		}

		if s.closeErr != nil {
			s.logger.Warn("Session teardown was not clean.", zap.Error(s.closeErr))
		} else {
			s.logger.Debug("Session closed.")
		}
	})
	return s.closeErr
}

// dispatchClick sends a move, then count press/release pairs at (x, y). The
// hold duration sits between press and release; it also paces repeat clicks.
func dispatchClick(ctx context.Context, x, y float64, count int, hold time.Duration) error {
	if count < 1 {
		count = 1
	}
	if hold <= 0 {
		hold = 60 * time.Millisecond
	}

	if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
		return err
	}
	for i := 1; i <= count; i++ {
		press := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.MouseButton("left")).
			WithButtons(1).
			WithClickCount(int64(i))
		if err := press.Do(ctx); err != nil {
			return err
		}

		select {
		case <-time.After(hold):
		case <-ctx.Done():
			return ctx.Err()
		}

		release := input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.MouseButton("left")).
			WithClickCount(int64(i))
		if err := release.Do(ctx); err != nil {
			return err
		}

		if i < count {
			select {
			case <-time.After(hold):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// lookupExpr returns a JS expression that resolves to the first node matching
// the query, or null. The query string rides in as a JSON literal so quoting
// in selectors cannot break out of the script.
func lookupExpr(by browser.By, expr string) string {
	if by == browser.ByXPath {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			jsonEncode(expr))
	}
	return fmt.Sprintf(`document.querySelector(%s)`, jsonEncode(expr))
}

// collectExpr returns a JS expression that resolves to an array of every node
// matching the query.
func collectExpr(by browser.By, expr string) string {
	if by == browser.ByXPath {
		return fmt.Sprintf(`(() => {
			const found = [];
			const it = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
			for (let i = 0; i < it.snapshotLength; i++) found.push(it.snapshotItem(i));
			return found;
		})()`, jsonEncode(expr))
	}
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, jsonEncode(expr))
}

// jsonEncode makes a value safe to splice into a script as a JS literal.
func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
