// Package supervise owns the worker loops: N independent restart-on-failure
// state machines that each run scripted sessions forever, plus an aggregator
// that publishes a live snapshot of every loop to a display sink.
package supervise

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/decoy-cli/internal/journey"
)

// Status is a worker loop's lifecycle state.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusRunning         Status = "running"
	StatusErrorRestarting Status = "error-restarting"
)

// WorkerState is one loop's dashboard row. The owning loop mutates it under
// its lock; everyone else sees copies.
type WorkerState struct {
	ID          int       `json:"id"`
	Status      Status    `json:"status"`
	CurrentStep string    `json:"current_step"`
	Runs        int       `json:"runs"`
	Successes   int       `json:"successes"`
	Failures    int       `json:"failures"`
	LastURL     string    `json:"last_url"`
	LastDetail  string    `json:"last_detail"`
	StartedAt   time.Time `json:"started_at"`
}

// Totals are process-wide counter sums plus the currently-running count.
type Totals struct {
	Runs      int `json:"runs"`
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
	Running   int `json:"running"`
}

// Snapshot is one aggregator frame.
type Snapshot struct {
	TakenAt time.Time     `json:"taken_at"`
	Workers []WorkerState `json:"workers"`
	Totals  Totals        `json:"totals"`
}

// Runner executes one scripted session against a URL. *journey.Runner
// satisfies it.
type Runner interface {
	RunOnce(ctx context.Context, targetURL string, obs journey.Observer) ([]journey.StepOutcome, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, targetURL string, obs journey.Observer) ([]journey.StepOutcome, error)

func (f RunnerFunc) RunOnce(ctx context.Context, targetURL string, obs journey.Observer) ([]journey.StepOutcome, error) {
	return f(ctx, targetURL, obs)
}

// Options configures a Supervisor. Zero durations take the production
// defaults.
type Options struct {
	// Workers is the loop count. Values below one are raised to one.
	Workers int

	// URLs is the target pool; each iteration picks uniformly from it.
	URLs []string

	// Runner executes one session per iteration.
	Runner Runner

	// SuccessPause is the cool-down after a clean run.
	SuccessPause time.Duration

	// FailurePause is the cool-down after a failed run. Shorter than
	// SuccessPause so a broken loop gets back to work quickly.
	FailurePause time.Duration

	// RefreshEvery is the snapshot cadence.
	RefreshEvery time.Duration

	// Sink receives snapshots. Nil discards them.
	Sink Sink

	// Seed makes URL picks reproducible in tests. Zero seeds from the clock.
	Seed int64

	Logger *zap.Logger
}

// Supervisor owns the loops and the aggregator.
type Supervisor struct {
	runner       Runner
	urls         []string
	successPause time.Duration
	failurePause time.Duration
	refreshEvery time.Duration
	sink         Sink
	logger       *zap.Logger
	workers      []*loopWorker
}

// New validates the options and builds the loop set. Loops do not start
// until Run.
func New(opts Options) (*Supervisor, error) {
	if opts.Runner == nil {
		return nil, errors.New("supervise: a runner is required")
	}
	if len(opts.URLs) == 0 {
		return nil, errors.New("supervise: at least one URL is required")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.SuccessPause <= 0 {
		opts.SuccessPause = time.Second
	}
	if opts.FailurePause <= 0 {
		opts.FailurePause = 500 * time.Millisecond
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = 250 * time.Millisecond
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("supervise")
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Supervisor{
		runner:       opts.Runner,
		urls:         append([]string(nil), opts.URLs...),
		successPause: opts.SuccessPause,
		failurePause: opts.FailurePause,
		refreshEvery: opts.RefreshEvery,
		sink:         opts.Sink,
		logger:       logger,
		workers:      make([]*loopWorker, 0, opts.Workers),
	}
	for i := 0; i < opts.Workers; i++ {
		s.workers = append(s.workers, &loopWorker{
			sup:    s,
			rng:    rand.New(rand.NewSource(seed + int64(i))),
			logger: logger.With(zap.Int("worker", i+1)),
			state:  WorkerState{ID: i + 1, Status: StatusIdle, CurrentStep: "idle"},
		})
	}
	return s, nil
}

// Run starts every loop and the aggregator and blocks until ctx is
// cancelled and all of them have drained.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("Supervisor starting.",
		zap.Int("workers", len(s.workers)),
		zap.Int("urls", len(s.urls)))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.workers {
		w := w
		g.Go(func() error {
			w.run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		s.aggregate(gctx)
		return nil
	})
	err := g.Wait()
	s.logger.Info("Supervisor stopped.")
	return err
}

// Snapshot assembles the current frame: per-loop copies plus totals.
func (s *Supervisor) Snapshot() Snapshot {
	snap := Snapshot{
		TakenAt: time.Now(),
		Workers: make([]WorkerState, 0, len(s.workers)),
	}
	for _, w := range s.workers {
		st := w.snapshot()
		snap.Workers = append(snap.Workers, st)
		snap.Totals.Runs += st.Runs
		snap.Totals.Successes += st.Successes
		snap.Totals.Failures += st.Failures
		if st.Status == StatusRunning {
			snap.Totals.Running++
		}
	}
	return snap
}

// aggregate publishes a frame every refresh tick. Publication happens only
// on this goroutine, over state copies, so a slow sink can never block a
// loop.
func (s *Supervisor) aggregate(ctx context.Context) {
	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sink.Publish(s.Snapshot())
		}
	}
}

// loopWorker is one restart-on-failure state machine: running, then cooling
// down, forever. It exits only on context cancellation, checked at
// iteration boundaries so an in-flight run always finishes its teardown.
type loopWorker struct {
	sup    *Supervisor
	rng    *rand.Rand
	logger *zap.Logger

	mu    sync.Mutex
	state WorkerState
}

func (w *loopWorker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		url := w.sup.urls[w.rng.Intn(len(w.sup.urls))]
		w.update(func(st *WorkerState) {
			st.Status = StatusRunning
			st.CurrentStep = "pick url"
			st.LastURL = url
			st.StartedAt = time.Now()
		})

		outcomes, err := w.sup.runner.RunOnce(ctx, url, journey.ObserverFunc(w.noteStep))

		var pause time.Duration
		switch {
		case err == nil:
			detail := ""
			if len(outcomes) > 0 {
				detail = outcomes[len(outcomes)-1].Detail
			}
			w.update(func(st *WorkerState) {
				st.Runs++
				st.Successes++
				st.LastDetail = detail
				st.Status = StatusIdle
				st.CurrentStep = "cooling down"
			})
			pause = w.sup.successPause
		case ctx.Err() != nil:
			// Shutdown interrupted the run; that is not a page failure.
			return
		default:
			w.logger.Debug("Run failed, restarting after cool-down.", zap.Error(err))
			w.update(func(st *WorkerState) {
				st.Runs++
				st.Failures++
				st.LastDetail = err.Error()
				st.Status = StatusErrorRestarting
			})
			pause = w.sup.failurePause
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pause):
		}
	}
}

func (w *loopWorker) noteStep(label string) {
	w.update(func(st *WorkerState) {
		st.CurrentStep = label
	})
}

func (w *loopWorker) update(fn func(*WorkerState)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(&w.state)
}

func (w *loopWorker) snapshot() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
