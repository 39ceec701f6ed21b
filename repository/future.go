package repository

import (
	"context"
)

// Future is the result of an asynchronous repository call. It completes exactly
// once with either a value or an error.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Async runs fn on its own goroutine and returns a Future for its result.
// fn receives ctx and should stop early when it is cancelled.
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Await blocks until the future completes or ctx is done
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
