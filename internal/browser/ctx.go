package browser

import (
	"context"
	"sync"
	"time"
)

// CombineContext derives a context that ends when either parent ends. Values
// flow from primary only. Sessions use it to parent per-operation work on
// both the caller's deadline and the session's own lifetime.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(primary)

	stop := make(chan struct{})
	go func() {
		select {
		case <-merged.Done():
			// Primary ended or the combined context was cancelled.
		case <-secondary.Done():
			cancel()
		case <-stop:
		}
	}()

	var once sync.Once
	release := func() {
		once.Do(func() { close(stop) })
		cancel()
	}
	return merged, release
}

// valueOnlyContext passes through values while hiding the parent's lifetime.
type valueOnlyContext struct{ context.Context }

func (valueOnlyContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (valueOnlyContext) Done() <-chan struct{}       { return nil }
func (valueOnlyContext) Err() error                  { return nil }

// Detach returns a context that keeps ctx's values but none of its
// cancellation or deadline. Teardown runs under a detached context so a
// session still closes cleanly after the run that created it is cancelled.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
