package interact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

func TestPerform(t *testing.T) {
	ctx := context.Background()

	t.Run("DeliversOnFirstStrategy", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(true)
		sess.add(Attr("id=start"), el)
		eng := newTestEngine(t, sess, fastTunables())

		err := eng.Perform(ctx, Step{Label: "start", Primary: Attr("id=start")})
		require.NoError(t, err)
		assert.Equal(t, []string{"forced-click"}, el.recorded())
		assert.Zero(t, sess.clickAtCount())
	})

	t.Run("WalksTheFallbackChain", func(t *testing.T) {
		sess := newFakeSession()
		sess.clickAtErr = browser.ErrUnsupported
		el := newFakeElement(true)
		el.clickFn = func(browser.ClickOptions) error { return errors.New("blocked by overlay") }
		sess.add(Attr("id=start"), el)
		eng := newTestEngine(t, sess, fastTunables())

		err := eng.Perform(ctx, Step{Label: "start", Primary: Attr("id=start")})
		require.NoError(t, err)
		assert.Equal(t, []string{"forced-click", "click", "script"}, el.recorded())
		assert.Equal(t, 2, sess.clickAtCount(), "pointer path and center click both tried")
	})

	t.Run("DoubleActivationJoinsTheChain", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(true)
		el.clickFn = func(opts browser.ClickOptions) error {
			if opts.ClickCount > 1 {
				return nil
			}
			return errors.New("single clicks bounce")
		}
		sess.add(Attr("id=start"), el)
		eng := newTestEngine(t, sess, fastTunables())

		err := eng.Perform(ctx, Step{Label: "start", Primary: Attr("id=start"), DoubleActivation: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"forced-click", "click", "double-click"}, el.recorded())
	})

	t.Run("FallbackDescriptorServes", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(true)
		sess.add(Path("a.get-link"), el)
		eng := newTestEngine(t, sess, fastTunables())

		err := eng.Perform(ctx, Step{
			Label:     "final",
			Primary:   Attr("id=missing"),
			Fallbacks: []TargetDescriptor{Path("a.get-link")},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, el.recorded())
	})

	t.Run("BackendWithoutCSSStillResolves", func(t *testing.T) {
		sess := newFakeSession()
		sess.cssUnsupported = true
		el := newFakeElement(true)
		sess.add(Attr("id=start"), el)
		eng := newTestEngine(t, sess, fastTunables())

		err := eng.Perform(ctx, Step{Label: "start", Primary: Attr("id=start")})
		require.NoError(t, err)
		assert.NotEmpty(t, el.recorded())
	})

	t.Run("HiddenWithoutMarkerGetsForcedClick", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(false)
		sess.add(Attr("id=start"), el)
		eng := newTestEngine(t, sess, fastTunables())

		err := eng.Perform(ctx, Step{Label: "start", Primary: Attr("id=start")})
		require.NoError(t, err)
		assert.Equal(t, []string{"forced-click"}, el.recorded())
	})

	t.Run("BudgetOverrunStaysWithinOnePoll", func(t *testing.T) {
		tun := fastTunables()
		tun.StepBudget = 250 * time.Millisecond
		tun.PollInterval = 50 * time.Millisecond
		eng := newTestEngine(t, newFakeSession(), tun)

		start := time.Now()
		err := eng.Perform(ctx, Step{Label: "ghost", Primary: Attr("id=ghost")})
		elapsed := time.Since(start)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotActionable)
		assert.ErrorIs(t, err, browser.ErrNoMatch, "the last cause rides along")
		var naErr *NotActionableError
		require.ErrorAs(t, err, &naErr)
		assert.Equal(t, "ghost", naErr.Step)

		assert.GreaterOrEqual(t, elapsed, tun.StepBudget)
		assert.Less(t, elapsed, tun.StepBudget+3*tun.PollInterval)
	})

	t.Run("SuppressedMarkerStillDelivers", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(false)
		el.setAttr(SuppressedMarker, "true")
		sess.add(Attr("id=slot"), el)
		eng := newTestEngine(t, sess, fastTunables())

		start := time.Now()
		err := eng.Perform(ctx, Step{Label: "slot", Primary: Attr("id=slot")})
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second, "marker flow resolves well inside the budget")

		calls := el.recorded()
		assert.Contains(t, calls, "remove-attr", "the marker gets stripped by force")
		assert.Contains(t, calls, "script", "a still-hidden element is activated by script")
		_, marked, err := el.Attribute(ctx, SuppressedMarker)
		require.NoError(t, err)
		assert.False(t, marked)
	})

	t.Run("MarkerClearingUnblocksActivation", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(false)
		el.setAttr(SuppressedMarker, "true")
		sess.add(Attr("id=slot"), el)
		eng := newTestEngine(t, sess, fastTunables())

		// The page releases the slot while the engine sits in its grace wait.
		timer := time.AfterFunc(20*time.Millisecond, func() {
			el.setVisible(true)
			_ = el.RemoveAttribute(context.Background(), SuppressedMarker)
		})
		defer timer.Stop()

		err := eng.Perform(ctx, Step{Label: "slot", Primary: Attr("id=slot")})
		require.NoError(t, err)
		assert.Contains(t, el.recorded(), "forced-click", "a released slot takes the normal chain")
	})

	t.Run("PreDwellDelaysTheSearch", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(true)
		sess.add(Attr("id=late"), el)
		eng := newTestEngine(t, sess, fastTunables())

		start := time.Now()
		err := eng.Perform(ctx, Step{Label: "late", Primary: Attr("id=late"), PreDwell: 60 * time.Millisecond})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	})

	t.Run("ClosedSessionFailsFast", func(t *testing.T) {
		sess := newFakeSession()
		el := newFakeElement(true)
		el.clickFn = func(browser.ClickOptions) error { return browser.ErrSessionClosed }
		el.scriptFn = func() error { return browser.ErrSessionClosed }
		sess.clickAtErr = browser.ErrSessionClosed
		sess.add(Attr("id=start"), el)
		tun := fastTunables()
		tun.StepBudget = 5 * time.Second
		eng := newTestEngine(t, sess, tun)

		start := time.Now()
		err := eng.Perform(ctx, Step{Label: "start", Primary: Attr("id=start")})
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrSessionClosed)
		assert.NotErrorIs(t, err, ErrNotActionable)
		assert.Less(t, time.Since(start), time.Second, "no point polling a dead session")
	})
}

func TestAwaitSettled(t *testing.T) {
	ctx := context.Background()

	t.Run("WaitsForReadyAndIdle", func(t *testing.T) {
		sess := newFakeSession()
		sess.domReady = []bool{false, false, true}
		sess.inFlight = []int{2, 1, 0}
		eng := newTestEngine(t, sess, fastTunables())

		start := time.Now()
		require.NoError(t, eng.AwaitSettled(ctx))
		assert.Less(t, time.Since(start), 300*time.Millisecond)
	})

	t.Run("ExpiryIsNonFatal", func(t *testing.T) {
		sess := newFakeSession()
		sess.domReady = []bool{false}
		tun := fastTunables()
		eng := newTestEngine(t, sess, tun)

		start := time.Now()
		require.NoError(t, eng.AwaitSettled(ctx))
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, tun.DOMBudget)
		assert.Less(t, elapsed, tun.DOMBudget+tun.IdleBudget+100*time.Millisecond)
	})

	t.Run("ProbeFailureAbandonsTheWait", func(t *testing.T) {
		sess := newFakeSession()
		sess.probeErr = errors.New("tab went away")
		eng := newTestEngine(t, sess, fastTunables())

		start := time.Now()
		require.NoError(t, eng.AwaitSettled(ctx))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("CancellationPropagates", func(t *testing.T) {
		sess := newFakeSession()
		sess.domReady = []bool{false}
		eng := newTestEngine(t, sess, fastTunables())

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, eng.AwaitSettled(cancelled), context.Canceled)
	})
}
