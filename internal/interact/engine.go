// Package interact delivers scripted interactions against hostile pages.
// Third-party pages hide controls, float ads over them, and re-render mid
// click, so a single find-and-click call is unreliable; every step here is a
// time-bounded fallback tree that either lands an activation or reports a
// typed failure.
package interact

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// SuppressedMarker is the attribute ad frameworks set on a slot while they
// keep it hidden.
const SuppressedMarker = "data-ad-suppressed"

// ErrNotActionable reports a step that exhausted its budget without landing
// an activation. Match with errors.Is.
var ErrNotActionable = errors.New("element not actionable")

// NotActionableError carries the step label and the last cause observed
// before the budget ran out.
type NotActionableError struct {
	Step string
	Last error
}

func (e *NotActionableError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("step %q: element not actionable within budget", e.Step)
	}
	return fmt.Sprintf("step %q: element not actionable within budget: %v", e.Step, e.Last)
}

func (e *NotActionableError) Unwrap() error { return e.Last }

func (e *NotActionableError) Is(target error) bool { return target == ErrNotActionable }

// Step is one required interaction of the scripted sequence.
type Step struct {
	Label            string
	Primary          TargetDescriptor
	Fallbacks        []TargetDescriptor
	DoubleActivation bool
	// PreDwell delays the step before any search begins. Zero everywhere
	// except a final step that models a deliberately delayed control.
	PreDwell time.Duration
	// SuppressAfter runs an overlay sweep once the activation lands.
	SuppressAfter bool
}

// Candidates returns the primary descriptor followed by the fallbacks.
func (s Step) Candidates() []TargetDescriptor {
	return append([]TargetDescriptor{s.Primary}, s.Fallbacks...)
}

// Tunables bound every wait the engine performs. Zero fields take defaults.
type Tunables struct {
	// PollInterval paces element searches and condition polls.
	PollInterval time.Duration
	// StepBudget caps one Perform call end to end.
	StepBudget time.Duration
	// DOMBudget and IdleBudget cap the two settle phases.
	DOMBudget  time.Duration
	IdleBudget time.Duration
	// MarkerGrace and MarkerPatience bound the two waits for a suppressed
	// marker to clear on its own.
	MarkerGrace    time.Duration
	MarkerPatience time.Duration
	// PostActivate is the pause after a landed activation.
	PostActivate time.Duration
	// OverlayPasses caps dismissal sweeps per SuppressOverlays call.
	OverlayPasses int
}

// DefaultTunables mirrors the timing profile the interaction script was
// tuned against.
func DefaultTunables() Tunables {
	return Tunables{
		PollInterval:   100 * time.Millisecond,
		StepBudget:     12 * time.Second,
		DOMBudget:      8 * time.Second,
		IdleBudget:     2 * time.Second,
		MarkerGrace:    time.Second,
		MarkerPatience: 3 * time.Second,
		PostActivate:   800 * time.Millisecond,
		OverlayPasses:  3,
	}
}

func (t Tunables) withDefaults() Tunables {
	d := DefaultTunables()
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.StepBudget <= 0 {
		t.StepBudget = d.StepBudget
	}
	if t.DOMBudget <= 0 {
		t.DOMBudget = d.DOMBudget
	}
	if t.IdleBudget <= 0 {
		t.IdleBudget = d.IdleBudget
	}
	if t.MarkerGrace <= 0 {
		t.MarkerGrace = d.MarkerGrace
	}
	if t.MarkerPatience <= 0 {
		t.MarkerPatience = d.MarkerPatience
	}
	if t.PostActivate < 0 {
		t.PostActivate = d.PostActivate
	}
	if t.OverlayPasses <= 0 {
		t.OverlayPasses = d.OverlayPasses
	}
	return t
}

// Pacing holds the behavioral timing bands clicks draw from, usually taken
// from a session identity's behavior bundle.
type Pacing struct {
	ClickHoldMin time.Duration
	ClickHoldMax time.Duration
	PrePressMin  time.Duration
	PrePressMax  time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		ClickHoldMin: 60 * time.Millisecond,
		ClickHoldMax: 140 * time.Millisecond,
		PrePressMin:  120 * time.Millisecond,
		PrePressMax:  350 * time.Millisecond,
	}
}

func (p Pacing) withDefaults() Pacing {
	d := DefaultPacing()
	if p.ClickHoldMin <= 0 {
		p.ClickHoldMin = d.ClickHoldMin
	}
	if p.ClickHoldMax < p.ClickHoldMin {
		p.ClickHoldMax = p.ClickHoldMin
	}
	if p.PrePressMin <= 0 {
		p.PrePressMin = d.PrePressMin
	}
	if p.PrePressMax < p.PrePressMin {
		p.PrePressMax = p.PrePressMin
	}
	return p
}

// Config gathers the engine's collaborators. Zero values are usable.
type Config struct {
	Pacing   Pacing
	Tunables Tunables
	Logger   *zap.Logger
	// Rand seeds pointer placement and pacing jitter. Nil draws a
	// time-seeded source.
	Rand *rand.Rand
}

// Engine drives interactions against one browser session.
type Engine struct {
	sess   browser.Session
	logger *zap.Logger
	tun    Tunables
	pace   Pacing
	rng    *rand.Rand
}

func NewEngine(sess browser.Session, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		sess:   sess,
		logger: logger.Named("interact"),
		tun:    cfg.Tunables.withDefaults(),
		pace:   cfg.Pacing.withDefaults(),
		rng:    rng,
	}
}

// Perform runs one step to a terminal state: either an activation lands and
// it returns nil, or the step budget runs out and it returns a
// NotActionableError wrapping the last observed cause. The budget overrun is
// at most one poll interval; every browser operation runs under the step
// deadline.
func (e *Engine) Perform(ctx context.Context, step Step) error {
	if step.PreDwell > 0 {
		if err := e.sleep(ctx, step.PreDwell); err != nil {
			return err
		}
	}

	deadline := time.Now().Add(e.tun.StepBudget)
	opCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	log := e.logger.With(zap.String("step", step.Label))
	var last error
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			log.Debug("Step budget exhausted.", zap.Error(last))
			return &NotActionableError{Step: step.Label, Last: last}
		}

		el, desc, err := e.searchOnce(opCtx, step)
		if err == nil {
			delivered, derr := e.deliver(opCtx, log, el, desc, step.DoubleActivation)
			if delivered {
				// The post-activation pause and overlay sweep run on the
				// caller's context: the step already succeeded, the budget
				// no longer applies.
				_ = e.sleep(ctx, e.tun.PostActivate)
				if step.SuppressAfter {
					e.SuppressOverlays(ctx)
				}
				log.Debug("Interaction delivered.", zap.String("target", desc.String()))
				return nil
			}
			if derr != nil {
				last = derr
			}
		} else {
			last = err
		}
		// A closed session is not an element problem; let the caller
		// classify it instead of burning the rest of the budget.
		if errors.Is(last, browser.ErrSessionClosed) {
			return fmt.Errorf("step %q: %w", step.Label, last)
		}
		if err := e.sleep(ctx, e.tun.PollInterval); err != nil {
			return err
		}
	}
}

// searchOnce makes one ordered pass over the step's candidates and their
// compiled query forms, returning the first attached element. The outer
// Perform loop provides the polling, so the primary descriptor is retried
// ahead of the fallbacks on every tick.
func (e *Engine) searchOnce(ctx context.Context, step Step) (browser.Element, TargetDescriptor, error) {
	var last error
	for _, desc := range step.Candidates() {
		for _, q := range desc.Queries() {
			el, err := e.sess.Find(ctx, q.By, q.Expr)
			switch {
			case err == nil:
				return el, desc, nil
			case errors.Is(err, browser.ErrNoMatch), errors.Is(err, browser.ErrSelectorUnsupported):
				continue
			default:
				last = err
			}
		}
	}
	if last == nil {
		last = browser.ErrNoMatch
	}
	return nil, TargetDescriptor{}, last
}

// deliver resolves visibility and runs the activation chain.
func (e *Engine) deliver(ctx context.Context, log *zap.Logger, el browser.Element, desc TargetDescriptor, double bool) (bool, error) {
	visible, err := el.Visible(ctx)
	if err != nil {
		return false, err
	}
	if !visible {
		if _, marked, err := el.Attribute(ctx, SuppressedMarker); err == nil && marked {
			return e.liberate(ctx, log, el, desc, double)
		}
		// Hidden without the marker: the forced click leads the chain, so
		// fall through and let it try.
	}
	return e.activate(ctx, log, el, desc, double)
}

// liberate works a suppressed-marker element loose: wait out the marker
// (short grace, then longer patience), strip it by force, and as a last
// resort script-activate the still-hidden element, which counts as
// delivered.
func (e *Engine) liberate(ctx context.Context, log *zap.Logger, el browser.Element, desc TargetDescriptor, double bool) (bool, error) {
	log.Debug("Target carries the suppressed marker, waiting it out.")
	if e.awaitRelease(ctx, el, e.tun.MarkerGrace) || e.awaitRelease(ctx, el, e.tun.MarkerPatience) {
		return e.activate(ctx, log, el, desc, double)
	}

	log.Debug("Marker never cleared, stripping it.")
	if err := el.RemoveAttribute(ctx, SuppressedMarker); err != nil {
		return false, err
	}
	if visible, err := el.Visible(ctx); err == nil && visible {
		return e.activate(ctx, log, el, desc, double)
	}

	if err := el.ScriptActivate(ctx); err != nil {
		return false, err
	}
	log.Debug("Activated suppressed target by script.")
	return true, nil
}

// awaitRelease polls until the marker clears or the element shows, for at
// most bound.
func (e *Engine) awaitRelease(ctx context.Context, el browser.Element, bound time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	for {
		if _, marked, err := el.Attribute(waitCtx, SuppressedMarker); err == nil && !marked {
			return true
		}
		if visible, err := el.Visible(waitCtx); err == nil && visible {
			return true
		}
		select {
		case <-waitCtx.Done():
			return false
		case <-time.After(e.tun.PollInterval):
		}
	}
}

// activate tries the delivery strategies in order and stops at the first
// that lands: forced click, hit-tested click, forced double click when the
// step wants one, a pointer path to a random point inside the central
// 40%x40% of the box, a plain coordinate click at the center, and finally a
// scripted activation.
func (e *Engine) activate(ctx context.Context, log *zap.Logger, el browser.Element, desc TargetDescriptor, double bool) (bool, error) {
	var last error
	attempt := func(strategy string, fn func() error) bool {
		if ctx.Err() != nil {
			return false
		}
		if err := fn(); err != nil {
			log.Debug("Activation attempt failed.",
				zap.String("strategy", strategy), zap.String("target", desc.String()), zap.Error(err))
			last = err
			return false
		}
		return true
	}

	if attempt("forced-click", func() error {
		return el.Click(ctx, browser.ClickOptions{Force: true, Hold: e.holdFor()})
	}) {
		return true, nil
	}
	if attempt("click", func() error {
		return el.Click(ctx, browser.ClickOptions{Hold: e.holdFor()})
	}) {
		return true, nil
	}
	if double {
		if attempt("double-click", func() error {
			return el.Click(ctx, browser.ClickOptions{Force: true, ClickCount: 2, Hold: e.holdFor()})
		}) {
			return true, nil
		}
	}

	if rect, err := el.Rect(ctx); err == nil && rect.Width > 0 && rect.Height > 0 {
		if attempt("pointer-path", func() error {
			x, y := rect.At(0.3+0.4*e.rng.Float64(), 0.3+0.4*e.rng.Float64())
			if err := e.sleep(ctx, e.prePressFor()); err != nil {
				return err
			}
			return e.sess.ClickAt(ctx, x, y)
		}) {
			return true, nil
		}
		if attempt("center-click", func() error {
			x, y := rect.Center()
			return e.sess.ClickAt(ctx, x, y)
		}) {
			return true, nil
		}
	} else if err != nil {
		last = err
	}

	if attempt("script", func() error { return el.ScriptActivate(ctx) }) {
		return true, nil
	}
	return false, last
}

func (e *Engine) holdFor() time.Duration {
	return e.between(e.pace.ClickHoldMin, e.pace.ClickHoldMax)
}

func (e *Engine) prePressFor() time.Duration {
	return e.between(e.pace.PrePressMin, e.pace.PrePressMax)
}

func (e *Engine) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(e.rng.Int63n(int64(hi-lo)))
}

// sleep waits ctx-aware.
func (e *Engine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
