// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"context"
	"iter"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FromSeq builds a buffer holding the elements of seq in order.
func FromSeq[T any](seq iter.Seq[T]) *Buffer[T] {
	b := NewBuffer[T]()
	for v := range seq {
		b.Push(v)
	}
	return b
}

// FromSlice builds a buffer holding a copy of vs in order.
func FromSlice[T any](vs []T) *Buffer[T] {
	b := NewBuffer[T]()
	b.PushSlice(vs)
	return b
}

// FromParallel builds a buffer from several sources drained concurrently,
// one goroutine per source. The order of each source is preserved; how
// sources interleave is unspecified.
//
// Returns the context error if ctx is done before every source is drained.
// The buffer then holds whatever was pushed so far.
func FromParallel[T any](ctx context.Context, sources ...iter.Seq[T]) (*Buffer[T], error) {
	b := NewBuffer[T]()
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			for v := range src {
				if err := ctx.Err(); err != nil {
					return err
				}
				b.Push(v)
			}
			return nil
		})
	}
	return b, g.Wait()
}

// CollectParallel builds a buffer of gen(i) for every i in [0, n), with the
// index space split into contiguous chunks across workers goroutines.
// workers <= 0 uses runtime.GOMAXPROCS(0).
//
// Elements generated by one worker keep index order; chunks interleave.
func CollectParallel[T any](ctx context.Context, workers, n int, gen func(i int) T) (*Buffer[T], error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	b := NewBuffer[T]()
	if n <= 0 {
		return b, ctx.Err()
	}
	workers = min(workers, n)
	chunk := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				b.Push(gen(i))
			}
			return nil
		})
	}
	return b, g.Wait()
}
