package interact

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// dismissCatalog lists the close controls ad frameworks render, most
// specific first: vignette dismiss ids, labelled close buttons, bare close
// glyphs, and close controls inside generically-styled fullscreen
// containers.
var dismissCatalog = []TargetDescriptor{
	Attr("id=dismiss-button"),
	Attr("id^=dismiss-button"),
	Attr("aria-label=Close ad"),
	Attr("aria-label=Close"),
	Attr("title=Close"),
	Attr("class~=dismissButton"),
	Text("Close"),
	Text("Skip Ad"),
	Text("No thanks"),
	Text("×"),
	Text("✕"),
	Text("X"),
	Path(`div[id*="google_vignette"] [aria-label="Close"]`),
	Path(`div[style*="z-index"] [aria-label="Close"]`),
	Path(`div[style*="position: fixed"] .close`),
}

// concealCatalog lists containers hidden outright once the dismissal passes
// are done: ad slots with no close control, and overlays pinned at maximum
// stacking order.
var concealCatalog = []TargetDescriptor{
	Path(`ins.adsbygoogle`),
	Path(`iframe[id^="google_ads_iframe"]`),
	Attr("id*=google_vignette"),
	Path(`div[style*="z-index: 2147483647"]`),
}

// SuppressOverlays opportunistically clears transient obstructions: up to
// OverlayPasses sweeps over the dismissal catalog, activating every
// currently visible match through the regular fallback chain, stopping
// early once a pass dismisses nothing; then a conceal sweep hides leftover
// containers outright. It returns how many overlays were dealt with and
// never fails; a page with no overlays is the normal case.
func (e *Engine) SuppressOverlays(ctx context.Context) int {
	total := 0
	for pass := 0; pass < e.tun.OverlayPasses; pass++ {
		dismissed := 0
		for _, desc := range dismissCatalog {
			if ctx.Err() != nil {
				return total
			}
			el := e.resolveVisible(ctx, desc)
			if el == nil {
				continue
			}
			if ok, _ := e.activate(ctx, e.logger, el, desc, false); ok {
				dismissed++
				// Give the page a beat to remove the overlay before the
				// next pattern scans for it.
				_ = e.sleep(ctx, e.tun.PollInterval)
			}
		}
		total += dismissed
		if dismissed == 0 {
			break
		}
	}

	for _, desc := range concealCatalog {
		if ctx.Err() != nil {
			return total
		}
		total += e.concealAll(ctx, desc)
	}

	if total > 0 {
		e.logger.Debug("Suppressed overlay content.", zap.Int("count", total))
	}
	return total
}

// resolveVisible returns the first visible element matching the descriptor,
// or nil. A match that resolves but is hidden needs no dismissing, so the
// remaining query forms are not tried.
func (e *Engine) resolveVisible(ctx context.Context, desc TargetDescriptor) browser.Element {
	for _, q := range desc.Queries() {
		el, err := e.sess.Find(ctx, q.By, q.Expr)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(ctx); err == nil && visible {
			return el
		}
		return nil
	}
	return nil
}

// concealAll hides every visible match of the descriptor through the first
// query form the backend supports, reporting how many were newly hidden.
func (e *Engine) concealAll(ctx context.Context, desc TargetDescriptor) int {
	for _, q := range desc.Queries() {
		n, err := e.sess.Conceal(ctx, q.By, q.Expr)
		if errors.Is(err, browser.ErrSelectorUnsupported) {
			continue
		}
		if err != nil {
			e.logger.Debug("Conceal sweep failed.",
				zap.String("target", desc.String()), zap.Error(err))
			return 0
		}
		return n
	}
	return 0
}
