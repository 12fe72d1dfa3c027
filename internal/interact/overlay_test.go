package interact

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

func TestSuppressOverlays(t *testing.T) {
	ctx := context.Background()

	t.Run("DismissesVisibleOverlay", func(t *testing.T) {
		sess := newFakeSession()
		overlay := newFakeElement(true)
		overlay.clickFn = func(browser.ClickOptions) error {
			overlay.setVisible(false)
			return nil
		}
		sess.add(Attr("aria-label=Close ad"), overlay)
		eng := newTestEngine(t, sess, fastTunables())

		assert.Equal(t, 1, eng.SuppressOverlays(ctx))
		assert.Equal(t, []string{"forced-click"}, overlay.recorded())
	})

	t.Run("SecondCallIsIdempotent", func(t *testing.T) {
		sess := newFakeSession()
		overlay := newFakeElement(true)
		overlay.clickFn = func(browser.ClickOptions) error {
			overlay.setVisible(false)
			return nil
		}
		sess.add(Attr("id=dismiss-button"), overlay)
		eng := newTestEngine(t, sess, fastTunables())

		assert.Equal(t, 1, eng.SuppressOverlays(ctx))
		before := len(overlay.recorded())

		assert.Zero(t, eng.SuppressOverlays(ctx))
		assert.Equal(t, before, len(overlay.recorded()), "no activations on the second call")
	})

	t.Run("StubbornOverlayGetsRepeatPasses", func(t *testing.T) {
		sess := newFakeSession()
		clicks := 0
		overlay := newFakeElement(true)
		overlay.clickFn = func(browser.ClickOptions) error {
			clicks++
			if clicks >= 2 {
				overlay.setVisible(false)
			}
			return nil
		}
		sess.add(Text("Skip Ad"), overlay)
		eng := newTestEngine(t, sess, fastTunables())

		// The first click "lands" but the overlay stays up, so the next
		// pass takes another swing.
		assert.Equal(t, 2, eng.SuppressOverlays(ctx))
	})

	t.Run("ActivationFailuresAreSwallowed", func(t *testing.T) {
		sess := newFakeSession()
		sess.clickAtErr = browser.ErrUnsupported
		overlay := newFakeElement(true)
		overlay.clickFn = func(browser.ClickOptions) error { return errors.New("wont go") }
		overlay.scriptFn = func() error { return errors.New("wont go") }
		sess.add(Attr("aria-label=Close"), overlay)
		eng := newTestEngine(t, sess, fastTunables())

		assert.Zero(t, eng.SuppressOverlays(ctx))
		assert.NotEmpty(t, overlay.recorded(), "attempts were made before giving up")
	})

	t.Run("ConcealSweepHidesLeftoverContainers", func(t *testing.T) {
		sess := newFakeSession()
		sess.concealCounts["ins.adsbygoogle"] = 2
		eng := newTestEngine(t, sess, fastTunables())

		assert.Equal(t, 2, eng.SuppressOverlays(ctx))
		assert.Zero(t, eng.SuppressOverlays(ctx), "already-hidden containers do not count again")
	})
}
