package waitqueue

import "github.com/baxromumarov/corobus/coro"

// Entry is a single parked coroutine's slot in a [Queue]. It is returned by
// nothing and held by nothing outside the Queue itself — callers never see
// one directly; it exists so ParkSelf can tell, after resuming, whether it
// was woken by [Queue.WakeOne]/[Queue.WakeAll]/[Queue.WakeN] (unlinked
// already) or by something else entirely (a spurious wake, still linked).
type Entry struct {
	handle coro.Handle
	linked bool
	prev   *Entry
	next   *Entry
}

// Queue is a FIFO of coroutines suspended on some condition (buffer full,
// buffer empty, ...). A coroutine appears in at most one Queue at a time;
// Queue itself doesn't enforce that, the caller's protocol does.
type Queue struct {
	rt         coro.Runtime
	head, tail *Entry
	len        int
}

// New creates a Queue that parks and wakes coroutines via rt.
func New(rt coro.Runtime) *Queue {
	if rt == nil {
		panic("waitqueue: New requires a non-nil coro.Runtime")
	}
	return &Queue{rt: rt}
}

// Len reports how many coroutines are currently parked on q.
func (q *Queue) Len() int { return q.len }

// Empty reports whether q has no parked coroutines.
func (q *Queue) Empty() bool { return q.len == 0 }

// ParkSelf appends an entry naming the calling coroutine to the tail of q,
// then suspends it. Control does not return here until some coroutine wakes
// the calling one. On return, ParkSelf detaches its own entry if it is
// still linked (a spurious wake — nothing dequeued it) and does nothing if
// it was already unlinked by a waker.
func (q *Queue) ParkSelf() {
	e := &Entry{handle: q.rt.Current(), linked: true}
	q.pushTail(e)
	q.rt.Suspend()
	if e.linked {
		q.unlink(e)
	}
}

// WakeOne detaches the head entry, if any, and marks its coroutine runnable.
// It reports whether an entry was woken.
func (q *Queue) WakeOne() bool {
	e := q.popHead()
	if e == nil {
		return false
	}
	e.linked = false
	q.rt.Wakeup(e.handle)
	return true
}

// WakeAll wakes every currently parked coroutine, in FIFO order, and
// reports how many were woken.
func (q *Queue) WakeAll() int {
	n := 0
	for q.WakeOne() {
		n++
	}
	return n
}

// WakeN wakes up to k parked coroutines, in FIFO order, stopping early if
// the queue empties first. It reports how many were woken.
func (q *Queue) WakeN(k int) int {
	n := 0
	for n < k && q.WakeOne() {
		n++
	}
	return n
}

func (q *Queue) pushTail(e *Entry) {
	e.prev = q.tail
	e.next = nil
	if q.tail != nil {
		q.tail.next = e
	} else {
		q.head = e
	}
	q.tail = e
	q.len++
}

func (q *Queue) popHead() *Entry {
	e := q.head
	if e == nil {
		return nil
	}
	q.unlink(e)
	return e
}

// unlink removes e from the list and marks it detached. Safe to call at
// most once per entry; ParkSelf checks linked first, and popHead only ever
// takes the current head, which is always linked.
func (q *Queue) unlink(e *Entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		q.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		q.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	e.linked = false
	q.len--
}
