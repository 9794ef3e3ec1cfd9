// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"math/bits"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// workRing is a bounded MPMC ring of pending work for the parallel
// scheduler.
//
// Each slot carries a turn number: turn == pos lets the pusher of pos in,
// turn == pos+1 lets the popper of pos in. A pop hands the slot to the
// pusher one lap later (pos + len(slots)).
type workRing[W any] struct {
	_     pad
	tail  atomix.Uint64 // Next push position
	_     pad
	head  atomix.Uint64 // Next pop position
	_     pad
	slots []workSlot[W]
	mask  uint64
}

type workSlot[W any] struct {
	turn atomix.Uint64
	w    W
}

// newWorkRing creates a ring with room for at least n entries, rounded up
// to a power of 2 (minimum 2).
func newWorkRing[W any](n int) *workRing[W] {
	size := uint64(1) << bits.Len(uint(max(n, 2)-1))
	r := &workRing[W]{
		slots: make([]workSlot[W], size),
		mask:  size - 1,
	}
	for i := range r.slots {
		r.slots[i].turn.StoreRelaxed(uint64(i))
	}
	return r
}

// claim reserves the next position of cursor whose slot is at turn
// pos+offset. Returns nil once the slot lags behind (ring full or empty).
func (r *workRing[W]) claim(cursor *atomix.Uint64, offset uint64) (*workSlot[W], uint64) {
	sw := spin.Wait{}
	for {
		pos := cursor.LoadAcquire()
		slot := &r.slots[pos&r.mask]
		switch d := int64(slot.turn.LoadAcquire()) - int64(pos+offset); {
		case d == 0:
			if cursor.CompareAndSwapAcqRel(pos, pos+1) {
				return slot, pos
			}
		case d < 0:
			return nil, 0
		}
		sw.Once()
	}
}

// push adds w. Returns ErrWouldBlock if the ring is full.
func (r *workRing[W]) push(w W) error {
	slot, pos := r.claim(&r.tail, 0)
	if slot == nil {
		return ErrWouldBlock
	}
	slot.w = w
	slot.turn.StoreRelease(pos + 1)
	return nil
}

// pop removes the oldest entry. Returns ErrWouldBlock if the ring is empty.
func (r *workRing[W]) pop() (W, error) {
	var zero W
	slot, pos := r.claim(&r.head, 1)
	if slot == nil {
		return zero, ErrWouldBlock
	}
	w := slot.w
	slot.w = zero
	slot.turn.StoreRelease(pos + r.mask + 1)
	return w, nil
}
