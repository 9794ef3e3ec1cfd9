// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "golang.org/x/sys/cpu"

// Queue is the combined producer-consumer interface for a FIFO queue.
//
// Buffer implements Queue with an unbounded Enqueue that never reports
// ErrWouldBlock, so code written against bounded queues can swap in a
// Buffer when backpressure is not wanted.
//
// Example:
//
//	var q segbuf.Queue[int] = segbuf.NewBuffer[int]()
//
//	val := 42
//	q.Enqueue(&val)
//
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs. The
// queue stores a copy of the pointed-to value, so the original can be
// modified after Enqueue returns.
type Producer[T any] interface {
	// Enqueue adds an element to the queue (non-blocking).
	// Returns nil on success, ErrWouldBlock if a bounded queue is full.
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// The element is returned by value. The original slot is cleared to allow
// garbage collection of referenced objects.
type Consumer[T any] interface {
	// Dequeue removes and returns an element from the queue (non-blocking).
	// Returns (zero-value, ErrWouldBlock) if the queue is empty.
	Dequeue() (T, error)
}

// pad is cache line padding to prevent false sharing.
type pad = cpu.CacheLinePad
