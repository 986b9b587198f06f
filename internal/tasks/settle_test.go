package tasks

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSettler(t *testing.T) {
	t.Run("waits for every task regardless of failures", func(t *testing.T) {
		boom := errors.New("boom")
		s := NewSettler[int](0)

		for i := range 5 {
			s.Go(context.Background(), func(ctx context.Context) (int, error) {
				time.Sleep(time.Duration(5-i) * time.Millisecond)
				if i%2 == 1 {
					return 0, boom
				}
				return i * 10, nil
			})
		}

		results := s.Wait()
		if len(results) != 5 {
			t.Fatalf("expected 5 results, got %d", len(results))
		}
		for i, r := range results {
			if i%2 == 1 {
				if !errors.Is(r.Err, boom) {
					t.Errorf("result %d: expected boom, got %v", i, r.Err)
				}
				continue
			}
			if r.Err != nil || r.Value != i*10 {
				t.Errorf("result %d: got (%d, %v)", i, r.Value, r.Err)
			}
		}
	})

	t.Run("recovers panics", func(t *testing.T) {
		s := NewSettler[string](0)
		s.Go(context.Background(), func(ctx context.Context) (string, error) {
			panic("kaboom")
		})
		s.Go(context.Background(), func(ctx context.Context) (string, error) {
			return "ok", nil
		})

		results := s.Wait()
		if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "kaboom") {
			t.Errorf("expected panic error, got %v", results[0].Err)
		}
		if results[1].Value != "ok" {
			t.Errorf("expected sibling to succeed, got %+v", results[1])
		}
	})

	t.Run("bounds concurrency", func(t *testing.T) {
		var running, peak atomic.Int32
		s := NewSettler[struct{}](2)

		for range 8 {
			s.Go(context.Background(), func(ctx context.Context) (struct{}, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			})
		}
		s.Wait()

		if got := peak.Load(); got > 2 {
			t.Errorf("expected at most 2 concurrent tasks, got %d", got)
		}
	})

	t.Run("cancelled context fails tasks waiting for a slot", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := NewSettler[int](1)
		for range 3 {
			s.Go(ctx, func(ctx context.Context) (int, error) { return 1, nil })
		}
		for i, r := range s.Wait() {
			if r.Err != nil && !errors.Is(r.Err, context.Canceled) {
				t.Errorf("result %d: expected context.Canceled, got %v", i, r.Err)
			}
		}
	})

	t.Run("settled callback runs when no slot is acquired", func(t *testing.T) {
		s := NewSettler[int](1)
		release := make(chan struct{})
		started := make(chan struct{})

		var settled atomic.Int32
		onSettle := func(Result[int]) { settled.Add(1) }

		s.GoSettled(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		}, onSettle)
		<-started

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var ran atomic.Bool
		s.GoSettled(ctx, func(ctx context.Context) (int, error) {
			ran.Store(true)
			return 2, nil
		}, onSettle)

		for settled.Load() < 1 {
			time.Sleep(time.Millisecond)
		}
		close(release)

		results := s.Wait()
		if ran.Load() {
			t.Error("expected the second task not to run")
		}
		if !errors.Is(results[1].Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", results[1].Err)
		}
		if got := settled.Load(); got != 2 {
			t.Errorf("expected 2 settled callbacks, got %d", got)
		}
	})

	t.Run("no tasks", func(t *testing.T) {
		if got := NewSettler[int](3).Wait(); len(got) != 0 {
			t.Errorf("expected no results, got %d", len(got))
		}
	})
}
