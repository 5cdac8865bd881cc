// Package gateway dispatches storage operations onto a worker pool and
// delivers their results over channels. It replaces the subscribe/observe
// callback pattern the flows were originally written against.
//
// Contract: every dispatched operation delivers exactly one Result on its
// channel. The channel is buffered, so the result is delivered even if the
// caller has stopped listening. Cancelling the context before the
// operation starts short-circuits it with ctx.Err(); an operation already
// running is never interrupted. No operation is retried, and completion
// order across concurrent operations is unspecified.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahmutgunduz1/MyHealth/internal/metrics"
)

// Result carries an operation's value or its error, never both.
type Result[T any] struct {
	Value T
	Err   error
}

// Dispatcher owns the worker pool. Construct one at the composition root
// and share it; Close drains in-flight work.
type Dispatcher struct {
	log  *zap.Logger
	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewDispatcher(workers int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}

	d := &Dispatcher{
		log:  log,
		jobs: make(chan func(), workers*4),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for job := range d.jobs {
				job()
			}
		}()
	}

	return d
}

// Close stops accepting work and waits for in-flight operations.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) submit(job func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("dispatcher closed")
	}
	d.jobs <- job
	return nil
}

// Go runs op on the pool and returns the channel its single Result will
// arrive on. The name identifies the operation in logs; each dispatch gets
// a correlation id.
func Go[T any](ctx context.Context, d *Dispatcher, name string, op func() (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	opID := uuid.NewString()

	metrics.RecordAsyncDispatched()
	metrics.RecordOperation(name)

	err := d.submit(func() {
		if err := ctx.Err(); err != nil {
			d.log.Debug("Operation abandoned before start",
				zap.String("op", name),
				zap.String("op_id", opID),
			)
			metrics.RecordAsyncCompleted(false)
			out <- Result[T]{Err: err}
			return
		}

		start := time.Now()
		value, err := op()
		metrics.RecordOperationDuration(time.Since(start))
		metrics.RecordAsyncCompleted(err == nil)
		if err != nil {
			d.log.Debug("Operation failed",
				zap.String("op", name),
				zap.String("op_id", opID),
				zap.Error(err),
			)
		}
		out <- Result[T]{Value: value, Err: err}
	})
	if err != nil {
		metrics.RecordAsyncCompleted(false)
		out <- Result[T]{Err: err}
	}

	return out
}

// Await is a convenience for callers that want to block on the result
// while still honoring context cancellation.
func Await[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case r := <-ch:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
