package orchestrator

import (
	"context"
	"sync"
)

// Future is a minimal single-shot completion handle: the admission primitive
// a data source awaits after offering the next input or clock tick. It
// completes exactly once, with either nil or the error that made the offer
// fail.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed once the future completes, for callers that
// want to select against it alongside other channels.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done, whichever comes
// first. The caller is expected to be draining the same executor the
// orchestrator runs on; if it is not, Wait may never return.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
