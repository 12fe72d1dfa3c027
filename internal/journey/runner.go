// Package journey runs one complete scripted session: launch a freshly
// fingerprinted browser, walk the fixed interaction sequence, and tear the
// session down no matter how the run ends.
package journey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
	"github.com/xkilldash9x/decoy-cli/internal/interact"
)

// StepOutcome records how one entry of the run transcript went.
type StepOutcome struct {
	Label   string
	OK      bool
	Detail  string
	Elapsed time.Duration
}

// Observer receives the runner's phase labels as they begin, so a
// supervisor can surface what each loop is doing right now.
type Observer interface {
	OnStep(label string)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(label string)

func (f ObserverFunc) OnStep(label string) { f(label) }

// Options configures a Runner. Zero values take the production defaults.
type Options struct {
	// Identities supplies one synthesized identity per run. Nil builds a
	// clock-seeded synthesizer over the built-in catalog.
	Identities *fingerprint.Synthesizer

	// Tunables are handed to the interaction engine unchanged.
	Tunables interact.Tunables

	// NavigationTimeout bounds the initial page load. Expiry is logged and
	// the run continues; hostile pages often never finish loading.
	NavigationTimeout time.Duration

	// TeardownTimeout bounds session close. Teardown runs detached from the
	// run context so a cancelled run still releases its browser.
	TeardownTimeout time.Duration

	// FinalDwell is the fixed wait before the last step's click.
	FinalDwell time.Duration

	// FinalPause is the hold after the last click before teardown, giving
	// the page time to register the activation.
	FinalPause time.Duration

	// LaunchPerSec throttles browser launches across all users of this
	// runner. Zero disables the throttle.
	LaunchPerSec float64

	Logger *zap.Logger
}

// Runner executes scripted sessions. One Runner is shared by every worker
// loop; each RunOnce call owns a private session and engine.
type Runner struct {
	launcher browser.Launcher
	ids      *fingerprint.Synthesizer
	throttle *rate.Limiter
	logger   *zap.Logger

	tunables interact.Tunables
	navWait  time.Duration
	teardown time.Duration
	dwell    time.Duration
	pause    time.Duration
}

// NewRunner builds a Runner over the given launcher.
func NewRunner(launcher browser.Launcher, opts Options) *Runner {
	if opts.Identities == nil {
		opts.Identities = fingerprint.NewSynthesizer(nil)
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.TeardownTimeout <= 0 {
		opts.TeardownTimeout = 10 * time.Second
	}
	if opts.FinalDwell <= 0 {
		opts.FinalDwell = 5 * time.Second
	}
	if opts.FinalPause <= 0 {
		opts.FinalPause = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var throttle *rate.Limiter
	if opts.LaunchPerSec > 0 {
		throttle = rate.NewLimiter(rate.Limit(opts.LaunchPerSec), 1)
	}
	return &Runner{
		launcher: launcher,
		ids:      opts.Identities,
		throttle: throttle,
		logger:   logger.Named("journey"),
		tunables: opts.Tunables,
		navWait:  opts.NavigationTimeout,
		teardown: opts.TeardownTimeout,
		dwell:    opts.FinalDwell,
		pause:    opts.FinalPause,
	}
}

// RunOnce drives one full session against targetURL and returns the
// transcript. The session is torn down on every exit path; teardown
// failures are logged at debug and never replace the run's real outcome.
func (r *Runner) RunOnce(ctx context.Context, targetURL string, obs Observer) ([]StepOutcome, error) {
	script := Script(r.dwell)
	outcomes := make([]StepOutcome, 0, len(script)+2)
	started := time.Now()

	observe(obs, "launching")
	if r.throttle != nil {
		if err := r.throttle.Wait(ctx); err != nil {
			return nil, err
		}
	}

	identity := r.ids.Synthesize()
	log := r.logger.With(
		zap.String("session_id", identity.ID),
		zap.String("platform", identity.Archetype.Platform),
		zap.String("url", targetURL),
	)

	sess, err := r.launcher.Launch(ctx, identity)
	if err != nil {
		return nil, &SessionFault{Phase: "launch", Err: err}
	}
	defer r.release(ctx, sess, log)

	eng := interact.NewEngine(sess, interact.Config{
		Pacing:   pacingFor(identity.Behavior),
		Tunables: r.tunables,
		Logger:   log,
	})

	observe(obs, "open url")
	stepStart := time.Now()
	navCtx, cancel := context.WithTimeout(ctx, r.navWait)
	err = sess.Navigate(navCtx, targetURL)
	cancel()
	if err != nil {
		if errors.Is(err, browser.ErrSessionClosed) {
			return outcomes, &SessionFault{Phase: "open url", Err: err}
		}
		// The page may be half up and still clickable; let the steps decide.
		log.Debug("Navigation did not complete, continuing anyway.", zap.Error(err))
	}
	if err := eng.AwaitSettled(ctx); err != nil {
		return outcomes, err
	}
	outcomes = append(outcomes, StepOutcome{
		Label: "Open URL", OK: true, Detail: targetURL, Elapsed: time.Since(stepStart),
	})
	eng.SuppressOverlays(ctx)

	for _, step := range script {
		observe(obs, step.Label)
		stepStart = time.Now()
		if err := eng.Perform(ctx, step); err != nil {
			outcomes = append(outcomes, StepOutcome{
				Label: step.Label, Detail: err.Error(), Elapsed: time.Since(stepStart),
			})
			if errors.Is(err, interact.ErrNotActionable) {
				return outcomes, fmt.Errorf("%s: %w", step.Label, err)
			}
			return outcomes, &SessionFault{Phase: step.Label, Err: err}
		}
		if err := eng.AwaitSettled(ctx); err != nil {
			return outcomes, err
		}
		detail := ""
		if step.PreDwell > 0 {
			detail = fmt.Sprintf("waited %s before click", step.PreDwell)
		}
		outcomes = append(outcomes, StepOutcome{
			Label: step.Label, OK: true, Detail: detail, Elapsed: time.Since(stepStart),
		})
	}

	if err := hold(ctx, r.pause); err != nil {
		return outcomes, err
	}
	observe(obs, "closing")
	outcomes = append(outcomes, StepOutcome{
		Label: "Done", OK: true,
		Detail: fmt.Sprintf("elapsed %.1fs", time.Since(started).Seconds()),
	})
	log.Info("Session script completed.", zap.Duration("elapsed", time.Since(started)))
	return outcomes, nil
}

// release closes the session on its own clock. The run context may already
// be cancelled; the browser still has to go, so only its values carry over.
func (r *Runner) release(ctx context.Context, sess browser.Session, log *zap.Logger) {
	tearCtx, cancel := context.WithTimeout(browser.Detach(ctx), r.teardown)
	defer cancel()
	if err := sess.Close(tearCtx); err != nil {
		log.Debug("Session teardown failed.", zap.Error(err))
	}
}

// pacingFor shapes the engine's click rhythm around the identity's drawn
// timings so sessions do not share a cadence.
func pacingFor(b fingerprint.BehaviorProfile) interact.Pacing {
	return interact.Pacing{
		ClickHoldMin: b.ClickHold * 7 / 10,
		ClickHoldMax: b.ClickHold * 13 / 10,
		PrePressMin:  b.InteractionDelay / 2,
		PrePressMax:  b.InteractionDelay,
	}
}

func observe(obs Observer, label string) {
	if obs != nil {
		obs.OnStep(label)
	}
}

func hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
