// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package segbuf

// RaceEnabled is true when the race detector is active.
// Used by tests to skip tests that run producers concurrently,
// which trigger false positives on atomix cursors.
const RaceEnabled = true
