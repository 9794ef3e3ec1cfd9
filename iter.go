// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "iter"

// SliceIter walks the live segments of a buffer from oldest to newest.
//
// Each call to Next yields the readable range of one segment, evaluated when
// the segment is reached. A SliceIter is forward-only and cannot be
// restarted; obtain a new one from Buffer.Iter.
//
// Iteration requires exclusive access: no Push, Pop or Reset may run until
// the iterator is abandoned.
type SliceIter[T any] struct {
	cur *segment[T]
}

// Iter returns a slice cursor positioned at the oldest segment.
func (b *Buffer[T]) Iter() *SliceIter[T] {
	return &SliceIter[T]{cur: b.tail.Load()}
}

// Next returns the next non-empty readable slice.
// Returns (nil, false) once every segment has been visited.
//
// The slice aliases buffer storage: writes through it are visible to later
// iterations and to Pop.
func (it *SliceIter[T]) Next() ([]T, bool) {
	for it.cur != nil {
		s := it.cur
		it.cur = s.next.Load()
		if live := s.live(); len(live) > 0 {
			return live, true
		}
	}
	return nil, false
}

// Slices returns an iterator over the readable slice of every live segment,
// in FIFO order. Empty segments are skipped.
//
// Slices alias buffer storage, so this is also the mutable slice iteration.
func (b *Buffer[T]) Slices() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		it := b.Iter()
		for {
			s, ok := it.Next()
			if !ok || !yield(s) {
				return
			}
		}
	}
}

// All returns an iterator over (position, element) pairs in FIFO order.
// Positions count from 0 at the oldest unread element.
func (b *Buffer[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		i := 0
		for s := range b.Slices() {
			for _, v := range s {
				if !yield(i, v) {
					return
				}
				i++
			}
		}
	}
}

// Values returns an iterator over elements in FIFO order.
func (b *Buffer[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for s := range b.Slices() {
			for _, v := range s {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Refs returns an iterator over pointers to elements in FIFO order.
// Updates through the pointers stay in the buffer.
func (b *Buffer[T]) Refs() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for s := range b.Slices() {
			for i := range s {
				if !yield(&s[i]) {
					return
				}
			}
		}
	}
}

// AppendTo appends the unread elements to dst in FIFO order and returns the
// extended slice. The buffer is left unchanged.
func (b *Buffer[T]) AppendTo(dst []T) []T {
	for s := range b.Slices() {
		dst = append(dst, s...)
	}
	return dst
}
