// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/segbuf"
	"github.com/valyala/fastrand"
)

// =============================================================================
// Test Helpers
// =============================================================================

func skipRace(t *testing.T) {
	t.Helper()
	if segbuf.RaceEnabled {
		t.Skip("skip: concurrent producers use atomix cursors")
	}
}

// countTo yields 0..n-1.
func countTo(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range n {
			if !yield(i) {
				return
			}
		}
	}
}

// checkPerProducerOrder drains b and verifies every producer's values
// (encoded as id*stride + seq) arrive complete and in order.
func checkPerProducerOrder(t *testing.T, b *segbuf.Buffer[int], producers, perProducer, stride int) {
	t.Helper()
	next := make([]int, producers)
	for popInOrder(t, b, next, stride) {
	}
	checkComplete(t, next, perProducer)
}

// popInOrder pops one value and checks it is the next sequence number of
// its producer. Returns false if b is empty.
func popInOrder(t *testing.T, b *segbuf.Buffer[int], next []int, stride int) bool {
	t.Helper()
	v, ok := b.Pop()
	if !ok {
		return false
	}
	id, seq := v/stride, v%stride
	if id < 0 || id >= len(next) {
		t.Fatalf("value out of range: %d", v)
	}
	if seq != next[id] {
		t.Fatalf("producer %d: got seq %d, want %d", id, seq, next[id])
	}
	next[id]++
	return true
}

func checkComplete(t *testing.T, next []int, perProducer int) {
	t.Helper()
	for id, n := range next {
		if n != perProducer {
			t.Fatalf("producer %d: drained %d, want %d", id, n, perProducer)
		}
	}
}

// =============================================================================
// Multiple producers
// =============================================================================

// TestMultiProducerFairness has k producers push 0..m; draining must yield
// exactly k copies of every value.
func TestMultiProducerFairness(t *testing.T) {
	skipRace(t)

	const k, m = 8, 20000
	b := segbuf.NewBuffer[int]()

	var wg sync.WaitGroup
	for range k {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for x := range m {
				b.Push(x)
			}
		}()
	}
	wg.Wait()

	if got := b.Len(); got != k*m {
		t.Fatalf("Len: got %d, want %d", got, k*m)
	}

	counts := make([]int, m)
	for {
		v, ok := b.Pop()
		if !ok {
			break
		}
		counts[v]++
	}
	for x, c := range counts {
		if c != k {
			t.Fatalf("value %d: drained %d times, want %d", x, c, k)
		}
	}
}

// TestMultiProducerOrder verifies each producer's pushes stay in order.
func TestMultiProducerOrder(t *testing.T) {
	skipRace(t)

	const producers, perProducer, stride = 6, 30000, 1 << 20
	b := segbuf.NewBuffer[int]()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProducer {
				b.Push(id*stride + i)
			}
		}(p)
	}
	wg.Wait()

	checkPerProducerOrder(t, b, producers, perProducer, stride)
}

// TestMultiProducerPushSlice mixes Push and randomly sized PushSlice calls
// across producers.
func TestMultiProducerPushSlice(t *testing.T) {
	skipRace(t)

	const producers, perProducer, stride = 4, 20000, 1 << 20
	b := segbuf.Build[int](segbuf.New().InitialCapacity(16).MaxSegmentCapacity(1024))

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			i := 0
			for i < perProducer {
				n := min(int(fastrand.Uint32n(300)), perProducer-i)
				if n == 0 {
					b.Push(id*stride + i)
					i++
					continue
				}
				batch := make([]int, n)
				for j := range batch {
					batch[j] = id*stride + i + j
				}
				b.PushSlice(batch)
				i += n
			}
		}(p)
	}
	wg.Wait()

	checkPerProducerOrder(t, b, producers, perProducer, stride)
}

// TestGrowthRace hammers segment boundaries with tiny segments so many
// producers overflow the same segment at once.
func TestGrowthRace(t *testing.T) {
	skipRace(t)

	const producers, perProducer = 16, 5000
	b := segbuf.Build[int](segbuf.New().InitialCapacity(2).MaxSegmentCapacity(8))

	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				b.Push(i)
			}
		}()
	}
	wg.Wait()

	counts := make([]int, perProducer)
	n := 0
	for v := range b.Values() {
		counts[v]++
		n++
	}
	if n != producers*perProducer {
		t.Fatalf("Values: got %d elements, want %d", n, producers*perProducer)
	}
	for x, c := range counts {
		if c != producers {
			t.Fatalf("value %d: seen %d times, want %d", x, c, producers)
		}
	}
}

// =============================================================================
// Producers concurrent with the consumer
// =============================================================================

// TestPushWhilePop runs the single consumer alongside producers.
func TestPushWhilePop(t *testing.T) {
	skipRace(t)

	const producers, perProducer, stride = 4, 50000, 1 << 20
	const total = producers * perProducer
	b := segbuf.Build[int](segbuf.New().InitialCapacity(32).MaxSegmentCapacity(4096))

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProducer {
				b.Push(id*stride + i)
			}
		}(p)
	}

	next := make([]int, producers)
	var consumed atomix.Int64
	deadline := time.Now().Add(20 * time.Second)
	backoff := iox.Backoff{}
	for consumed.Load() < total {
		if time.Now().After(deadline) {
			t.Fatalf("timeout: consumed %d/%d", consumed.Load(), total)
		}
		v, err := b.Dequeue()
		if err != nil {
			if !segbuf.IsWouldBlock(err) {
				t.Fatalf("Dequeue: %v", err)
			}
			backoff.Wait()
			continue
		}
		backoff.Reset()
		id, seq := v/stride, v%stride
		if seq != next[id] {
			t.Fatalf("producer %d: got seq %d, want %d", id, seq, next[id])
		}
		next[id]++
		consumed.Add(1)
	}
	wg.Wait()

	if _, ok := b.Pop(); ok {
		t.Fatal("Pop after full drain: got element")
	}
}

// TestPushWhilePopTinySegments pops alongside producers on one and two slot
// segments, so nearly every Pop meets a segment that producers are filling
// and linking at the same time. No value may be skipped.
func TestPushWhilePopTinySegments(t *testing.T) {
	skipRace(t)

	const producers, perProducer, stride = 4, 200000, 1 << 20
	b := segbuf.Build[int](segbuf.New().InitialCapacity(1).MaxSegmentCapacity(2))

	var wg sync.WaitGroup
	var done atomix.Bool
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProducer {
				b.Push(id*stride + i)
			}
		}(p)
	}
	go func() {
		wg.Wait()
		done.StoreRelease(true)
	}()

	next := make([]int, producers)
	deadline := time.Now().Add(30 * time.Second)
	backoff := iox.Backoff{}
	for !done.LoadAcquire() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for producers")
		}
		if !popInOrder(t, b, next, stride) {
			backoff.Wait()
			continue
		}
		backoff.Reset()
	}
	for popInOrder(t, b, next, stride) {
	}

	checkComplete(t, next, perProducer)
	if n := b.Len(); n != 0 {
		t.Fatalf("Len after drain: got %d, want 0", n)
	}
}

// =============================================================================
// Parallel construction
// =============================================================================

// TestFromParallel builds from several sources at once.
func TestFromParallel(t *testing.T) {
	skipRace(t)

	const sources, n = 5, 10000
	srcs := make([]iter.Seq[int], sources)
	for i := range srcs {
		srcs[i] = countTo(n)
	}

	b, err := segbuf.FromParallel(context.Background(), srcs...)
	if err != nil {
		t.Fatalf("FromParallel: %v", err)
	}

	counts := make([]int, n)
	for v := range b.Values() {
		counts[v]++
	}
	for x, c := range counts {
		if c != sources {
			t.Fatalf("value %d: seen %d times, want %d", x, c, sources)
		}
	}
}

// TestFromParallelCanceled verifies a canceled context stops the sources.
func TestFromParallelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := segbuf.FromParallel(ctx, countTo(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("FromParallel: got %v, want context.Canceled", err)
	}
}

// TestCollectParallel builds gen(i) for every index.
func TestCollectParallel(t *testing.T) {
	skipRace(t)

	const n = 12345
	b, err := segbuf.CollectParallel(context.Background(), 7, n, func(i int) int { return i * 2 })
	if err != nil {
		t.Fatalf("CollectParallel: %v", err)
	}

	got := b.AppendTo(nil)
	slices.Sort(got)
	if len(got) != n {
		t.Fatalf("CollectParallel: got %d elements, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("CollectParallel[%d]: got %d, want %d", i, v, i*2)
		}
	}

	empty, err := segbuf.CollectParallel(context.Background(), 0, 0, func(i int) int { return i })
	if err != nil || empty.Len() != 0 {
		t.Fatalf("CollectParallel(n=0): got Len=%d err=%v", empty.Len(), err)
	}
}
