// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// Buffer is an unbounded multi-producer single-consumer FIFO buffer built
// from a chain of segments.
//
// Producers claim slots in the head segment with FAA. When a producer
// overflows the head, it links a successor of double capacity with a single
// CAS on the segment's next pointer; racing producers adopt the winner's
// segment. The consumer reads the tail segment in order and retires it once
// drained.
//
// Push and PushSlice are safe from any number of goroutines. Pop and Dequeue
// are single consumer only and may overlap with producers. Iteration, Len,
// Cap, Range and Reset require exclusive access.
//
// Memory: per-segment contiguous []T plus one ready flag per slot
type Buffer[T any] struct {
	_       pad
	head    atomic.Pointer[segment[T]] // Segment producers write into
	_       pad
	tail    atomic.Pointer[segment[T]] // Segment the consumer reads from
	_       pad
	initial uint64
	maxCap  uint64
	release func(T)
}

var _ Queue[int] = (*Buffer[int])(nil)

// NewBuffer creates an empty buffer with default options.
// The first segment holds DefaultInitialCapacity elements.
func NewBuffer[T any]() *Buffer[T] {
	return Build[T](New())
}

func newBuffer[T any](initial, maxCap uint64, release func(T)) *Buffer[T] {
	b := &Buffer[T]{
		initial: initial,
		maxCap:  maxCap,
		release: release,
	}
	s := newSegment[T](initial)
	b.head.Store(s)
	b.tail.Store(s)
	return b
}

// Push appends v (multiple producers safe). Never blocks.
func (b *Buffer[T]) Push(v T) {
	sw := spin.Wait{}
	for {
		h := b.head.Load()
		pos := h.write.AddAcqRel(1) - 1
		if pos < h.capacity {
			h.store(pos, v)
			return
		}
		b.advance(h)
		sw.Once()
	}
}

// PushSlice appends vs in order (multiple producers safe).
//
// Each attempt claims the whole remainder of vs with one FAA; the part that
// fits the current segment is written and the rest moves on to the next
// segment. Elements of other producers may land between the two parts.
func (b *Buffer[T]) PushSlice(vs []T) {
	sw := spin.Wait{}
	for len(vs) > 0 {
		h := b.head.Load()
		n := uint64(len(vs))
		end := h.write.AddAcqRel(n)
		pos := end - n
		if pos < h.capacity {
			k := min(end, h.capacity) - pos
			for i := range k {
				h.store(pos+i, vs[i])
			}
			vs = vs[k:]
			if len(vs) == 0 {
				return
			}
		}
		b.advance(h)
		sw.Once()
	}
}

// advance moves head past the full segment h, linking a successor first
// when h has none.
func (b *Buffer[T]) advance(h *segment[T]) {
	next := h.next.Load()
	if next == nil {
		n := newSegment[T](grow(h.capacity, b.maxCap))
		n.prev.Store(h)
		if h.next.CompareAndSwap(nil, n) {
			next = n
		} else {
			// Lost the race: n was never linked, so dropping it frees it.
			next = h.next.Load()
		}
	}
	b.head.CompareAndSwap(h, next)
}

// Enqueue appends *elem (multiple producers safe).
// Always returns nil: the buffer is unbounded.
func (b *Buffer[T]) Enqueue(elem *T) error {
	b.Push(*elem)
	return nil
}

// Pop removes and returns the oldest element (single consumer only).
// Returns (zero-value, false) if no element is available.
//
// A slot that was claimed by a producer but not yet written ends the
// available range: Pop reports empty rather than skip it.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	s := b.tail.Load()
	for {
		r := s.read.LoadRelaxed()
		if r < s.limit() {
			if !s.ready[r].LoadAcquire() {
				return zero, false
			}
			v := s.data[r]
			s.data[r] = zero
			s.read.StoreRelease(r + 1)
			return v, true
		}

		next := s.next.Load()
		if next == nil {
			return zero, false
		}
		// Producers may have filled s between the limit check and the next
		// load. A visible successor implies limit() == capacity, so this
		// re-check is final.
		if r < s.limit() {
			continue
		}
		next.prev.Store(nil)
		b.tail.Store(next)
		s = next
	}
}

// Dequeue removes and returns the oldest element (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the buffer is empty.
func (b *Buffer[T]) Dequeue() (T, error) {
	v, ok := b.Pop()
	if !ok {
		return v, ErrWouldBlock
	}
	return v, nil
}

// Len returns the number of unread elements.
// Requires exclusive access.
func (b *Buffer[T]) Len() int {
	n := 0
	for s := b.tail.Load(); s != nil; s = s.next.Load() {
		n += len(s.live())
	}
	return n
}

// Cap returns the total slot capacity of the live chain.
// Requires exclusive access.
func (b *Buffer[T]) Cap() int {
	n := 0
	for s := b.tail.Load(); s != nil; s = s.next.Load() {
		n += int(s.capacity)
	}
	return n
}

// Segments returns the number of segments in the live chain.
// Requires exclusive access.
func (b *Buffer[T]) Segments() int {
	n := 0
	for s := b.tail.Load(); s != nil; s = s.next.Load() {
		n++
	}
	return n
}

// Reset discards every unread element and shrinks the buffer back to a
// single segment of the initial capacity. Unread elements are passed to the
// release hook, each exactly once. Returns the number of released elements.
// Requires exclusive access.
func (b *Buffer[T]) Reset() int {
	n := 0
	for s := b.tail.Load(); s != nil; s = s.next.Load() {
		n += s.release(b.release)
	}
	fresh := newSegment[T](b.initial)
	b.head.Store(fresh)
	b.tail.Store(fresh)
	return n
}
