// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
)

// segment is one fixed-capacity block of the chain.
//
// Slot i holds a live element iff read <= i < limit() and ready[i] is set.
// Producers only grow that range (write, ready); the consumer only shrinks
// it (read).
type segment[T any] struct {
	_        pad
	write    atomix.Uint64 // Producer cursor (FAA), may run past capacity
	_        pad
	read     atomix.Uint64 // Consumer cursor
	_        pad
	next     atomic.Pointer[segment[T]] // Set at most once, by the growth winner
	prev     atomic.Pointer[segment[T]] // Advisory; cleared on retire
	capacity uint64
	data     []T
	ready    []atomix.Bool
}

func newSegment[T any](capacity uint64) *segment[T] {
	return &segment[T]{
		capacity: capacity,
		data:     make([]T, capacity),
		ready:    make([]atomix.Bool, capacity),
	}
}

// limit returns min(write, capacity): the end of the claimed range.
func (s *segment[T]) limit() uint64 {
	w := s.write.LoadAcquire()
	if w > s.capacity {
		return s.capacity
	}
	return w
}

// store writes v into a claimed slot and publishes it.
func (s *segment[T]) store(pos uint64, v T) {
	s.data[pos] = v
	s.ready[pos].StoreRelease(true)
}

// live returns the readable range data[read:limit].
// Requires quiescent producers.
func (s *segment[T]) live() []T {
	r := s.read.LoadRelaxed()
	l := s.limit()
	if r >= l {
		return nil
	}
	return s.data[r:l:l]
}

// release passes every unread element to fn and clears it.
// Requires exclusive access.
func (s *segment[T]) release(fn func(T)) int {
	var zero T
	r := s.read.LoadRelaxed()
	l := s.limit()
	n := 0
	for i := r; i < l; i++ {
		if !s.ready[i].LoadAcquire() {
			continue
		}
		if fn != nil {
			fn(s.data[i])
		}
		s.data[i] = zero
		n++
	}
	s.read.StoreRelease(l)
	return n
}
