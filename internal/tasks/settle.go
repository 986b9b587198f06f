package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Result is the settled outcome of one task.
type Result[T any] struct {
	Value T
	Err   error
}

// Settler runs tasks concurrently and waits for all of them to settle,
// successful or not. Unlike an errgroup one failure never cancels the rest.
type Settler[T any] struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	results []Result[T]
	sem     *semaphore.Weighted
}

// NewSettler creates a [Settler]. A positive limit bounds how many tasks run at once;
// zero or less means unbounded.
func NewSettler[T any](limit int) *Settler[T] {
	s := &Settler[T]{}
	if limit > 0 {
		s.sem = semaphore.NewWeighted(int64(limit))
	}
	return s
}

// Go starts fn and returns the index its result will have in [Settler.Wait].
// A panic in fn is recovered into an error.
func (s *Settler[T]) Go(ctx context.Context, fn func(context.Context) (T, error)) int {
	return s.GoSettled(ctx, fn, nil)
}

// GoSettled is [Settler.Go] with a settled callback. settled runs exactly once with the
// task's result, even when fn never ran because no slot could be acquired.
func (s *Settler[T]) GoSettled(ctx context.Context, fn func(context.Context) (T, error), settled func(Result[T])) int {
	s.mu.Lock()
	idx := len(s.results)
	s.results = append(s.results, Result[T]{})
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := s.run(ctx, fn)

		s.mu.Lock()
		s.results[idx] = res
		s.mu.Unlock()

		if settled != nil {
			settled(res)
		}
	}()
	return idx
}

func (s *Settler[T]) run(ctx context.Context, fn func(context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return Result[T]{Err: err}
		}
		defer s.sem.Release(1)
	}

	v, err := fn(ctx)
	return Result[T]{Value: v, Err: err}
}

// Wait blocks until every started task has settled and returns their results in start order.
func (s *Settler[T]) Wait() []Result[T] {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result[T], len(s.results))
	copy(out, s.results)
	return out
}
