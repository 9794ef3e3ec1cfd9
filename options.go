// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

// DefaultInitialCapacity is the capacity of the first segment of a buffer
// built without an explicit InitialCapacity.
const DefaultInitialCapacity = 64

// Options configures buffer creation.
type Options struct {
	// Capacity of the first segment
	initialCapacity int

	// Upper bound for doubling (0 = unbounded)
	maxSegmentCapacity int
}

// Builder creates buffers with fluent configuration.
//
// Example:
//
//	// Default buffer: 64-slot first segment, unbounded doubling
//	b := segbuf.Build[Event](segbuf.New())
//
//	// Large first segment, segments stop growing at 64Ki slots
//	b := segbuf.Build[Event](segbuf.New().InitialCapacity(4096).MaxSegmentCapacity(1 << 16))
//
//	// Hand unread elements back to a pool on Reset
//	b := segbuf.BuildWithRelease(segbuf.New(), func(m *Msg) { pool.Put(m) })
type Builder struct {
	opts Options
}

// New creates a buffer builder with default options.
func New() *Builder {
	return &Builder{opts: Options{initialCapacity: DefaultInitialCapacity}}
}

// InitialCapacity sets the number of slots in the first segment.
// Every later segment doubles the capacity of its predecessor.
//
// Panics if n < 1.
func (b *Builder) InitialCapacity(n int) *Builder {
	if n < 1 {
		panic("segbuf: initial capacity must be >= 1")
	}
	b.opts.initialCapacity = n
	return b
}

// MaxSegmentCapacity stops capacity doubling once segments reach n slots.
// Later segments are all allocated with n slots. Zero disables the limit.
//
// Panics if n < 0.
func (b *Builder) MaxSegmentCapacity(n int) *Builder {
	if n < 0 {
		panic("segbuf: max segment capacity must be >= 0")
	}
	b.opts.maxSegmentCapacity = n
	return b
}

// Build creates an empty Buffer[T] holding one segment of the initial
// capacity.
//
// Panics if a configured MaxSegmentCapacity is below InitialCapacity.
func Build[T any](b *Builder) *Buffer[T] {
	return BuildWithRelease[T](b, nil)
}

// BuildWithRelease is Build with a release hook.
//
// Reset hands every element that was pushed but never popped to release,
// exactly once. Popped elements belong to the caller and are never passed
// to release. A nil release discards unread elements silently.
func BuildWithRelease[T any](b *Builder, release func(T)) *Buffer[T] {
	o := b.opts
	if o.maxSegmentCapacity != 0 && o.maxSegmentCapacity < o.initialCapacity {
		panic("segbuf: max segment capacity must be >= initial capacity")
	}
	return newBuffer(uint64(o.initialCapacity), uint64(o.maxSegmentCapacity), release)
}

// grow returns the capacity of the segment that follows one of capacity c.
func grow(c, limit uint64) uint64 {
	n := c << 1
	if n < c {
		// Shift overflowed; keep the current size.
		n = c
	}
	if limit != 0 && n > limit {
		n = limit
	}
	return n
}
