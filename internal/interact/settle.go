package interact

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AwaitSettled waits for the page to reach a minimally stable state: first
// document readiness within the DOM budget, then network quiescence within
// the idle budget. Neither bound is load-bearing; pages under trackers and
// polling scripts may never quiesce, so expiry just hands control back.
// Only ctx cancellation returns an error.
func (e *Engine) AwaitSettled(ctx context.Context) error {
	ready, err := e.settle(ctx, e.tun.DOMBudget, func(c context.Context) (bool, error) {
		return e.sess.DOMReady(c)
	})
	if err != nil {
		return err
	}
	if !ready {
		e.logger.Debug("Document readiness wait expired, moving on.")
	}

	idle, err := e.settle(ctx, e.tun.IdleBudget, func(c context.Context) (bool, error) {
		n, err := e.sess.InFlight(c)
		return n == 0, err
	})
	if err != nil {
		return err
	}
	if !idle {
		e.logger.Debug("Network idle wait expired, moving on.")
	}
	return nil
}

// settle polls cond at the engine's poll interval until it holds or bound
// passes. A failing probe abandons the wait with a debug log so the next
// real operation surfaces the underlying problem instead of burning the
// whole bound against a dead session.
func (e *Engine) settle(ctx context.Context, bound time.Duration, cond func(context.Context) (bool, error)) (bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()
	for {
		ok, err := cond(waitCtx)
		if err == nil && ok {
			return true, nil
		}
		if err != nil && waitCtx.Err() == nil {
			e.logger.Debug("Settle probe failed, abandoning the wait.", zap.Error(err))
			return false, nil
		}
		select {
		case <-waitCtx.Done():
			return false, ctx.Err()
		case <-time.After(e.tun.PollInterval):
		}
	}
}
