// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package segbuf provides an unbounded, segmented FIFO buffer for
// many producers and one consumer.
//
// A Buffer is a chain of contiguous segments. The first segment holds 64
// elements and each new segment doubles the capacity of the previous one.
// Producers claim slots with a single fetch-and-add and never block or
// fail; the single consumer drains or iterates the chain from the oldest
// segment.
//
// # Quick Start
//
//	b := segbuf.NewBuffer[Event]()
//
//	// Any number of producers
//	go func() { b.Push(ev) }()
//
//	// One consumer
//	if ev, ok := b.Pop(); ok {
//	    handle(ev)
//	}
//
// Builder API for non-default segment sizes:
//
//	b := segbuf.Build[Event](segbuf.New().InitialCapacity(1024).MaxSegmentCapacity(1 << 16))
//
// # Access Patterns
//
// The buffer trades generality for speed by restricting who may run
// concurrently:
//
//	Push × Push             safe, any number of goroutines
//	Pop × Push              safe, one consumer goroutine
//	Pop × Pop               not allowed
//	Iterate/Range/Reset × * not allowed (exclusive access)
//
// Pop reports empty when the next slot has been claimed by a producer that
// has not finished writing it. FIFO order is never broken to skip it.
//
// Violating these constraints causes undefined behavior including data
// corruption and races. They are not detected at runtime.
//
// # Iteration
//
// Once producers are done for a phase, the buffer can be read in place
// without draining it:
//
//	for s := range b.Slices() { ... }     // one slice per segment
//	for v := range b.Values() { ... }     // flattened
//	for p := range b.Refs() { *p *= 2 }   // in-place update
//
// # Parallel Iteration
//
// Range returns a [Splitter] that halves the segment list on every Split.
// [Run] drives a Splitter with a small pool of workers sharing pending
// halves through a bounded lock-free ring:
//
//	err := b.ParallelEach(ctx, 0, func(v *Item) error {
//	    v.Score = score(v)
//	    return nil
//	})
//
//	sum, err := segbuf.ParallelFold(ctx, b, 0,
//	    func() int { return 0 },
//	    func(acc int, s []int) int { for _, v := range s { acc += v }; return acc },
//	    func(a, c int) int { return a + c })
//
// # Construction
//
//	b := segbuf.FromSlice(values)
//	b := segbuf.FromSeq(maps.Keys(m))
//	b, err := segbuf.FromParallel(ctx, src1, src2, src3)
//
// # Error Handling
//
// There are no failure modes in steady state. Pop signals empty with
// ok == false. Dequeue, for code written against the [Queue] interface,
// returns [ErrWouldBlock], sourced from [code.hybscloud.com/iox].
//
// # Release
//
// Popped elements belong to the caller. Reset discards unread elements;
// with BuildWithRelease each of them is handed to the release hook exactly
// once, so pooled or reference-counted values can be returned.
//
// # Race Detection
//
// Cursors and ready flags use [code.hybscloud.com/atomix] with explicit
// memory ordering, which Go's race detector does not observe. Tests that
// run producers concurrently are skipped when [RaceEnabled] is set.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions,
// [golang.org/x/sync/errgroup] for parallel workers and
// [golang.org/x/sys/cpu] for cache line padding.
package segbuf
