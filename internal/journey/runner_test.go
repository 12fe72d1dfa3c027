package journey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
	"github.com/xkilldash9x/decoy-cli/internal/interact"
)

type stubElement struct{}

func (stubElement) Visible(context.Context) (bool, error) { return true, nil }

func (stubElement) Rect(context.Context) (browser.Rect, error) {
	return browser.Rect{X: 10, Y: 10, Width: 80, Height: 30}, nil
}

func (stubElement) Click(context.Context, browser.ClickOptions) error { return nil }

func (stubElement) ScriptActivate(context.Context) error { return nil }

func (stubElement) Attribute(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (stubElement) RemoveAttribute(context.Context, string) error { return nil }

// stubSession resolves a fixed set of selector expressions and counts
// lifecycle calls.
type stubSession struct {
	mu          sync.Mutex
	known       map[string]bool
	navErr      error
	closeErr    error
	closes      int
	lastURL     string
	sawDeadline bool
}

func newStubSession(selectors ...string) *stubSession {
	known := make(map[string]bool, len(selectors))
	for _, s := range selectors {
		known[s] = true
	}
	return &stubSession{known: known}
}

// scriptSelectors is the happy-path resolution set: the CSS form of every
// step's primary descriptor.
func scriptSelectors() []string {
	return []string{
		"div.start_btn",
		"div.btn:nth-child(1)",
		"a.btn:nth-child(1)",
		"div.btn:nth-child(2)",
		"a.btn:nth-child(2)",
		"a.get-link",
	}
}

func (s *stubSession) ID() string { return "stub" }

func (s *stubSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, s.sawDeadline = ctx.Deadline()
	s.lastURL = url
	return s.navErr
}

func (s *stubSession) Location(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastURL, nil
}

func (s *stubSession) Find(_ context.Context, _ browser.By, expr string) (browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known[expr] {
		return stubElement{}, nil
	}
	return nil, browser.ErrNoMatch
}

func (s *stubSession) ClickAt(context.Context, float64, float64) error { return nil }

func (s *stubSession) Conceal(context.Context, browser.By, string) (int, error) { return 0, nil }

func (s *stubSession) DOMReady(context.Context) (bool, error) { return true, nil }

func (s *stubSession) InFlight(context.Context) (int, error) { return 0, nil }

func (s *stubSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return s.closeErr
}

func (s *stubSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

var (
	_ browser.Session = (*stubSession)(nil)
	_ browser.Element = stubElement{}
)

func launcherFor(sess browser.Session) browser.Launcher {
	return browser.LauncherFunc(func(context.Context, fingerprint.SessionIdentity) (browser.Session, error) {
		return sess, nil
	})
}

func testRunner(t *testing.T, launcher browser.Launcher) *Runner {
	t.Helper()
	return NewRunner(launcher, Options{
		Identities: fingerprint.NewSeededSynthesizer(nil, 7),
		Tunables: interact.Tunables{
			PollInterval:   10 * time.Millisecond,
			StepBudget:     150 * time.Millisecond,
			DOMBudget:      30 * time.Millisecond,
			IdleBudget:     20 * time.Millisecond,
			MarkerGrace:    20 * time.Millisecond,
			MarkerPatience: 30 * time.Millisecond,
			PostActivate:   time.Millisecond,
			OverlayPasses:  1,
		},
		NavigationTimeout: 100 * time.Millisecond,
		TeardownTimeout:   50 * time.Millisecond,
		FinalDwell:        time.Millisecond,
		FinalPause:        time.Millisecond,
		Logger:            zaptest.NewLogger(t),
	})
}

// recorder collects the phase labels the runner reports.
type recorder struct {
	mu     sync.Mutex
	labels []string
}

func (r *recorder) OnStep(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels...)
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPathTranscript", func(t *testing.T) {
		sess := newStubSession(scriptSelectors()...)
		r := testRunner(t, launcherFor(sess))
		obs := &recorder{}

		outcomes, err := r.RunOnce(ctx, "https://example.test/offer", obs)
		require.NoError(t, err)
		require.Len(t, outcomes, 12)

		assert.Equal(t, "Open URL", outcomes[0].Label)
		assert.Equal(t, "https://example.test/offer", outcomes[0].Detail)
		for i := 1; i <= 10; i++ {
			assert.Equal(t, "step "+strconv.Itoa(i), outcomes[i].Label)
		}
		for _, o := range outcomes {
			assert.True(t, o.OK, o.Label)
		}
		assert.Equal(t, "Done", outcomes[11].Label)
		assert.Contains(t, outcomes[11].Detail, "elapsed")
		assert.Contains(t, outcomes[10].Detail, "waited 1ms before click")

		want := []string{"launching", "open url"}
		for _, s := range Script(0) {
			want = append(want, s.Label)
		}
		want = append(want, "closing")
		assert.Equal(t, want, obs.seen())

		assert.Equal(t, 1, sess.closeCount())
	})

	t.Run("StepFailureKeepsTranscript", func(t *testing.T) {
		// Everything except the step-3 link resolves.
		sess := newStubSession("div.start_btn", "div.btn:nth-child(1)")
		r := testRunner(t, launcherFor(sess))

		outcomes, err := r.RunOnce(ctx, "https://example.test/offer", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, interact.ErrNotActionable)
		assert.Contains(t, err.Error(), "step 3")

		require.Len(t, outcomes, 4) // Open URL, steps 1-2 OK, step 3 failed
		assert.True(t, outcomes[2].OK)
		assert.False(t, outcomes[3].OK)
		assert.Equal(t, "step 3", outcomes[3].Label)
		assert.NotEmpty(t, outcomes[3].Detail)
	})

	t.Run("LaunchFailureIsSessionFault", func(t *testing.T) {
		boom := errors.New("no browser binary")
		r := testRunner(t, browser.LauncherFunc(func(context.Context, fingerprint.SessionIdentity) (browser.Session, error) {
			return nil, boom
		}))

		outcomes, err := r.RunOnce(ctx, "https://example.test/offer", nil)
		assert.Nil(t, outcomes)

		var fault *SessionFault
		require.ErrorAs(t, err, &fault)
		assert.Equal(t, "launch", fault.Phase)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("NavigationTimeoutIsNonFatal", func(t *testing.T) {
		sess := newStubSession(scriptSelectors()...)
		sess.navErr = context.DeadlineExceeded
		r := testRunner(t, launcherFor(sess))

		outcomes, err := r.RunOnce(ctx, "https://slow.test/", nil)
		require.NoError(t, err)
		assert.True(t, outcomes[0].OK, "open url stays in the transcript")
		assert.True(t, sess.sawDeadline, "navigation runs under a bounded context")
	})

	t.Run("NavigationOnClosedSessionFaults", func(t *testing.T) {
		sess := newStubSession(scriptSelectors()...)
		sess.navErr = browser.ErrSessionClosed
		r := testRunner(t, launcherFor(sess))

		_, err := r.RunOnce(ctx, "https://example.test/", nil)
		var fault *SessionFault
		require.ErrorAs(t, err, &fault)
		assert.Equal(t, "open url", fault.Phase)
	})

	t.Run("TeardownErrorNeverMasksTheOutcome", func(t *testing.T) {
		sess := newStubSession(scriptSelectors()...)
		sess.closeErr = errors.New("browser already gone")
		r := testRunner(t, launcherFor(sess))

		outcomes, err := r.RunOnce(ctx, "https://example.test/", nil)
		require.NoError(t, err)
		assert.Len(t, outcomes, 12)
		assert.Equal(t, 1, sess.closeCount())
	})
}

func TestTeardownExactlyOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessPath", func(t *testing.T) {
		sess := newStubSession(scriptSelectors()...)
		r := testRunner(t, launcherFor(sess))
		_, err := r.RunOnce(ctx, "https://example.test/", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, sess.closeCount())
	})

	t.Run("MidStepFailure", func(t *testing.T) {
		sess := newStubSession("div.start_btn")
		r := testRunner(t, launcherFor(sess))
		_, err := r.RunOnce(ctx, "https://example.test/", nil)
		require.Error(t, err)
		assert.Equal(t, 1, sess.closeCount())
	})

	t.Run("LaunchFailure", func(t *testing.T) {
		launches := 0
		r := testRunner(t, browser.LauncherFunc(func(context.Context, fingerprint.SessionIdentity) (browser.Session, error) {
			launches++
			return nil, errors.New("spawn failed")
		}))
		_, err := r.RunOnce(ctx, "https://example.test/", nil)
		require.Error(t, err)
		assert.Equal(t, 1, launches, "no session existed, nothing to tear down")
	})

	t.Run("CancelledRunStillTearsDown", func(t *testing.T) {
		sess := newStubSession(scriptSelectors()...)
		r := testRunner(t, launcherFor(sess))
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := r.RunOnce(cancelled, "https://example.test/", nil)
		require.Error(t, err)
		assert.Equal(t, 1, sess.closeCount(), "teardown must not ride the run context")
	})
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	wrapped := Classify(fmt.Errorf("urls.txt missing: %w", ErrInputError))
	assert.ErrorIs(t, wrapped, ErrInputError)

	step := Classify(fmt.Errorf("step 3: %w", interact.ErrNotActionable))
	assert.ErrorIs(t, step, interact.ErrNotActionable)

	fault := &SessionFault{Phase: "launch", Err: errors.New("spawn failed")}
	assert.Same(t, fault, Classify(fault))

	other := Classify(errors.New("websocket hiccup"))
	var sf *SessionFault
	require.ErrorAs(t, other, &sf)
	assert.Equal(t, "run", sf.Phase)
}

func TestScript(t *testing.T) {
	dwell := 5 * time.Second
	steps := Script(dwell)
	require.Len(t, steps, 10)

	for i, s := range steps {
		assert.Equal(t, "step "+strconv.Itoa(i+1), s.Label)
		assert.NotEmpty(t, s.Fallbacks, s.Label)
		assert.True(t, s.SuppressAfter, s.Label)
	}

	assert.Equal(t, interact.Path("div.start_btn"), steps[0].Primary)
	assert.True(t, strings.Contains(steps[7].Primary.Value, ":nth-child(2)"))
	assert.True(t, strings.Contains(steps[8].Primary.Value, ":nth-child(2)"))
	assert.Equal(t, interact.Path("a.get-link"), steps[9].Primary)
	assert.Equal(t, dwell, steps[9].PreDwell)
	assert.Zero(t, steps[0].PreDwell)
}

func TestPacingFor(t *testing.T) {
	p := pacingFor(fingerprint.BehaviorProfile{
		ClickHold:        100 * time.Millisecond,
		InteractionDelay: 400 * time.Millisecond,
	})
	assert.Equal(t, 70*time.Millisecond, p.ClickHoldMin)
	assert.Equal(t, 130*time.Millisecond, p.ClickHoldMax)
	assert.Equal(t, 200*time.Millisecond, p.PrePressMin)
	assert.Equal(t, 400*time.Millisecond, p.PrePressMax)
}
