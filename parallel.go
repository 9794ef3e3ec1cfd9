// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"context"
	"runtime"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"golang.org/x/sync/errgroup"
)

// Splitter is a divisible unit of parallel work over contiguous slices.
//
// A scheduler splits a Splitter until it no longer divides and then folds
// the leaf. Any scheduler may drive a Splitter; Run is the one shipped with
// this package.
type Splitter[T any] interface {
	// Split divides the remaining work roughly in half.
	// Returns ok == false, with left holding all remaining work, once the
	// Splitter can no longer be divided.
	Split() (left, right Splitter[T], ok bool)

	// Fold passes every remaining slice to fn in order and stops at the
	// first error. A Splitter is consumed by Fold.
	Fold(fn func([]T) error) error

	// Len returns the number of slices left.
	Len() int
}

// Range is the Splitter over the live segments of a Buffer.
//
// Split halves the segment list by count, so every segment is owned by
// exactly one side after any sequence of splits. A leaf Range folds exactly
// one segment slice.
type Range[T any] struct {
	segs []*segment[T]
}

var _ Splitter[int] = (*Range[int])(nil)

// Range returns a Splitter over every non-empty live segment.
// Requires exclusive access until the Range and all of its halves have
// been folded or abandoned.
func (b *Buffer[T]) Range() *Range[T] {
	var segs []*segment[T]
	for s := b.tail.Load(); s != nil; s = s.next.Load() {
		if len(s.live()) > 0 {
			segs = append(segs, s)
		}
	}
	return &Range[T]{segs: segs}
}

// Split implements Splitter.
func (r *Range[T]) Split() (Splitter[T], Splitter[T], bool) {
	if len(r.segs) <= 1 {
		return r, nil, false
	}
	mid := len(r.segs) / 2
	left := &Range[T]{segs: r.segs[:mid:mid]}
	right := &Range[T]{segs: r.segs[mid:]}
	r.segs = nil
	return left, right, true
}

// Fold implements Splitter.
func (r *Range[T]) Fold(fn func([]T) error) error {
	segs := r.segs
	r.segs = nil
	for _, s := range segs {
		if live := s.live(); len(live) > 0 {
			if err := fn(live); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len implements Splitter.
func (r *Range[T]) Len() int {
	return len(r.segs)
}

// Run drives root to completion on workers goroutines, calling fn once per
// leaf slice. workers <= 0 uses runtime.GOMAXPROCS(0).
//
// Pending halves are shared through a bounded lock-free ring; a worker that
// finds the ring full keeps the half for itself. fn runs concurrently on
// disjoint slices and must not touch the buffer otherwise.
//
// Returns the first error from fn, or the context error if ctx is done
// before all leaves are folded.
func Run[T any](ctx context.Context, root Splitter[T], workers int, fn func([]T) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if root.Len() == 0 {
		return ctx.Err()
	}

	ring := newWorkRing[Splitter[T]](workers * 4)
	var pending atomix.Int64
	pending.Add(1)
	if err := ring.push(root); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			backoff := iox.Backoff{}
			for pending.Load() > 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
				s, err := ring.pop()
				if err != nil {
					if !IsWouldBlock(err) {
						return err
					}
					// Others still hold splitters and may share halves.
					backoff.Wait()
					continue
				}
				backoff.Reset()
				err = drive(ctx, ring, &pending, s, fn)
				pending.Add(-1)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// drive splits s as far as it goes, sharing right halves, then folds the
// leaf.
func drive[T any](ctx context.Context, ring *workRing[Splitter[T]], pending *atomix.Int64, s Splitter[T], fn func([]T) error) error {
	for {
		left, right, ok := s.Split()
		if !ok {
			s = left
			break
		}
		pending.Add(1)
		if ring.push(right) != nil {
			err := drive(ctx, ring, pending, right, fn)
			pending.Add(-1)
			if err != nil {
				return err
			}
		}
		s = left
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Fold(fn)
}

// ParallelSlices calls fn concurrently for the readable slice of every live
// segment. Requires exclusive access to b for the duration of the call.
func (b *Buffer[T]) ParallelSlices(ctx context.Context, workers int, fn func([]T) error) error {
	return Run[T](ctx, b.Range(), workers, fn)
}

// ParallelEach calls fn concurrently for a pointer to every unread element.
// Updates through the pointer stay in the buffer. Requires exclusive access
// to b for the duration of the call.
func (b *Buffer[T]) ParallelEach(ctx context.Context, workers int, fn func(*T) error) error {
	return b.ParallelSlices(ctx, workers, func(s []T) error {
		for i := range s {
			if err := fn(&s[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ParallelFold reduces the unread elements of b in parallel.
//
// Each leaf slice is folded into a fresh identity() accumulator; the partial
// results are merged with combine in completion order, so combine must be
// associative and commutative. Requires exclusive access to b.
func ParallelFold[T, A any](ctx context.Context, b *Buffer[T], workers int,
	identity func() A, fold func(A, []T) A, combine func(A, A) A) (A, error) {
	var mu sync.Mutex
	acc := identity()
	err := b.ParallelSlices(ctx, workers, func(s []T) error {
		part := fold(identity(), s)
		mu.Lock()
		acc = combine(acc, part)
		mu.Unlock()
		return nil
	})
	return acc, err
}
