package watch

import (
	"context"
	"time"
)

// Snapshot is one emission of a watched query.
type Snapshot[T any] struct {
	Value T
	Err   error
	At    time.Time
}

// QueryFunc is re-run to produce every snapshot.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// Watch emits the result of query right away, then again every time one of tables changes
// on broker and on every poll tick. A nil broker or a non-positive poll disables the
// corresponding trigger. The stream is closed once ctx is done.
func Watch[T any](ctx context.Context, broker *Broker, poll time.Duration, query QueryFunc[T], tables ...string) <-chan Snapshot[T] {
	out := make(chan Snapshot[T])

	var invalidated <-chan struct{}
	var sub *Subscription
	if broker != nil && len(tables) > 0 {
		sub = broker.Subscribe(tables...)
		invalidated = sub.C()
	}

	go func() {
		defer close(out)
		if sub != nil {
			defer sub.Close()
		}

		var tick <-chan time.Time
		if poll > 0 {
			ticker := time.NewTicker(poll)
			defer ticker.Stop()
			tick = ticker.C
		}

		emit := func() bool {
			val, err := query(ctx)
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- Snapshot[T]{Value: val, Err: err, At: time.Now()}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-invalidated:
			case <-tick:
			}
			if !emit() {
				return
			}
		}
	}()
	return out
}
