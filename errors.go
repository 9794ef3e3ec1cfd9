// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import "code.hybscloud.com/iox"

// ErrWouldBlock is returned by [Buffer.Dequeue] when the buffer has nothing
// to read yet: it is empty, or its oldest slot is claimed by a producer that
// has not finished writing it. More elements may follow at any time.
//
// The buffer itself never fails, so ErrWouldBlock is the only error a
// consumer sees from it. It is [iox.ErrWouldBlock], shared with other
// iox-based queues and I/O.
//
// A consumer that batches whatever is ready, then idles:
//
//	batch := make([]Event, 0, 256)
//	backoff := iox.Backoff{}
//	for ctx.Err() == nil {
//	    ev, err := b.Dequeue()
//	    if err == nil && len(batch) < cap(batch) {
//	        batch = append(batch, ev)
//	        continue
//	    }
//	    if err == nil {
//	        flush(batch)
//	        batch = append(batch[:0], ev)
//	        continue
//	    }
//	    if len(batch) > 0 {
//	        flush(batch)
//	        batch = batch[:0]
//	        backoff.Reset()
//	        continue
//	    }
//	    backoff.Wait()
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err is, or wraps, ErrWouldBlock.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is an iox control flow signal such as
// ErrWouldBlock rather than a failure.
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err is nil or a control flow signal. Code
// mixing Dequeue with other iox sources can treat every such error as
// "nothing to do now".
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
