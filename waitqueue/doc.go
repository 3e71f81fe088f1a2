// Package waitqueue implements the FIFO park/wake primitive that corobus
// channels use to suspend coroutines waiting for buffer space or data.
//
// A Queue is intrusive in spirit: each parked coroutine is represented by a
// single heap-allocated [Entry] linked into the queue's list, released on
// both return paths (normal wake and spurious wake). Park and wake are both
// O(1).
package waitqueue
