package nodeflow

import "context"

// Future is the eventual result of work started with Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on a new goroutine and returns a Future for its result.
// A panic inside fn is recovered and reported as a *PanicError.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = &PanicError{Value: r}
			}
		}()
		f.value, f.err = fn(ctx)
	}()
	return f
}

// resolved returns an already completed Future.
func resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: v, err: err}
	close(f.done)
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the work completes.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await is like Wait but gives up when ctx is done. The underlying work
// keeps running.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Outcome is the settled state of one Future.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Settle waits for every future to complete or fail and returns their
// outcomes in the same order. A failure never short-circuits the others.
func Settle[T any](futures []*Future[T]) []Outcome[T] {
	out := make([]Outcome[T], len(futures))
	for i, f := range futures {
		v, err := f.Wait()
		out[i] = Outcome[T]{Value: v, Err: err}
	}
	return out
}

// firstFailure returns the index and error of the lowest-index failed
// outcome, or -1 when all succeeded.
func firstFailure[T any](outcomes []Outcome[T]) (int, error) {
	for i, o := range outcomes {
		if o.Err != nil {
			return i, o.Err
		}
	}
	return -1, nil
}
