package chromium

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// element addresses a node by the query that found it. Ops re-resolve the
// query on every call, so a handle stays usable across DOM mutations as long
// as something still matches.
type element struct {
	sess *session
	by   browser.By
	expr string
}

var _ browser.Element = (*element)(nil)

func (e *element) Visible(ctx context.Context) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
	})()`, lookupExpr(e.by, e.expr))

	res, err := e.sess.evalJSON(ctx, script)
	if err != nil {
		return false, fmt.Errorf("visibility of %q: %w", e.expr, err)
	}
	if string(res) == "null" {
		return false, browser.ErrNoMatch
	}
	return string(res) == "true", nil
}

func (e *element) Rect(ctx context.Context) (browser.Rect, error) {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		const r = el.getBoundingClientRect();
		return {x: r.x, y: r.y, width: r.width, height: r.height};
	})()`, lookupExpr(e.by, e.expr))

	res, err := e.sess.evalJSON(ctx, script)
	if err != nil {
		return browser.Rect{}, fmt.Errorf("rect of %q: %w", e.expr, err)
	}
	if string(res) == "null" {
		return browser.Rect{}, browser.ErrNoMatch
	}
	var rect browser.Rect
	if err := json.Unmarshal(res, &rect); err != nil {
		return browser.Rect{}, fmt.Errorf("rect of %q: unexpected result %s: %w", e.expr, string(res), err)
	}
	return rect, nil
}

// Click scrolls the node into view, verifies the click point unless forced,
// and presses through the input pipeline, so the page sees the same event
// stream a real pointer would produce.
func (e *element) Click(ctx context.Context, opts browser.ClickOptions) error {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		el.scrollIntoView({block: 'center', inline: 'center', behavior: 'instant'});
		const r = el.getBoundingClientRect();
		const x = r.x + r.width / 2;
		const y = r.y + r.height / 2;
		const at = document.elementFromPoint(x, y);
		const hit = !!at && (at === el || el.contains(at) || at.contains(el));
		return {x: x, y: y, hit: hit};
	})()`, lookupExpr(e.by, e.expr))

	res, err := e.sess.evalJSON(ctx, script)
	if err != nil {
		return fmt.Errorf("click %q: %w", e.expr, err)
	}
	if string(res) == "null" {
		return browser.ErrNoMatch
	}

	var point struct {
		X   float64 `json:"x"`
		Y   float64 `json:"y"`
		Hit bool    `json:"hit"`
	}
	if err := json.Unmarshal(res, &point); err != nil {
		return fmt.Errorf("click %q: unexpected result %s: %w", e.expr, string(res), err)
	}
	if !point.Hit && !opts.Force {
		return fmt.Errorf("click %q: %w", e.expr, browser.ErrNotHittable)
	}

	err = e.sess.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return dispatchClick(c, point.X, point.Y, opts.ClickCount, opts.Hold)
	}))
	if err != nil {
		return fmt.Errorf("click %q: %w", e.expr, err)
	}
	return nil
}

// ScriptActivate fires the activation sequence from script. Pages that eat
// real pointer events with overlays still respond to this.
func (e *element) ScriptActivate(ctx context.Context) error {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		const init = {bubbles: true, cancelable: true, view: window};
		el.dispatchEvent(new PointerEvent('pointerdown', init));
		el.dispatchEvent(new PointerEvent('pointerup', init));
		el.click();
		return true;
	})()`, lookupExpr(e.by, e.expr))

	res, err := e.sess.evalJSON(ctx, script)
	if err != nil {
		return fmt.Errorf("script-activate %q: %w", e.expr, err)
	}
	if string(res) == "null" {
		return browser.ErrNoMatch
	}
	return nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		const v = el.getAttribute(%s);
		return {has: v !== null, value: v === null ? '' : v};
	})()`, lookupExpr(e.by, e.expr), jsonEncode(name))

	res, err := e.sess.evalJSON(ctx, script)
	if err != nil {
		return "", false, fmt.Errorf("attribute %s of %q: %w", name, e.expr, err)
	}
	if string(res) == "null" {
		return "", false, browser.ErrNoMatch
	}

	var attr struct {
		Has   bool   `json:"has"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(res, &attr); err != nil {
		return "", false, fmt.Errorf("attribute %s of %q: unexpected result %s: %w", name, e.expr, string(res), err)
	}
	return attr.Value, attr.Has, nil
}

func (e *element) RemoveAttribute(ctx context.Context, name string) error {
	script := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return null;
		el.removeAttribute(%s);
		return true;
	})()`, lookupExpr(e.by, e.expr), jsonEncode(name))

	res, err := e.sess.evalJSON(ctx, script)
	if err != nil {
		return fmt.Errorf("remove attribute %s of %q: %w", name, e.expr, err)
	}
	if string(res) == "null" {
		return browser.ErrNoMatch
	}
	return nil
}
