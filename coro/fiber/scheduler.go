package fiber

import "github.com/baxromumarov/corobus/coro"

// Scheduler is a reference, single-threaded cooperative coroutine runtime.
// It implements [coro.Runtime] by handing a baton between goroutines one at
// a time: exactly one fiber goroutine is ever executing user code while the
// Scheduler's driver loop is blocked waiting for it to either suspend or
// finish. This is what lets corobus's core rely on the single-threaded
// invariants in its design without any locking of its own — the mutual
// exclusion lives entirely here, in the part of the system spec.md
// explicitly places outside the bus's responsibility.
//
// Scheduler is not safe for use by more than one driver goroutine; it is
// normally driven via [Group.Wait] rather than directly.
type Scheduler struct {
	fibers     map[coro.Handle]*fiberState
	nextHandle coro.Handle
	ready      []coro.Handle
	control    chan schedEvent
	current    coro.Handle
	onFinish   func(coro.Handle, *fiberState)
}

type fiberState struct {
	info   Info
	resume chan struct{}
	queued bool
	done   bool
	err    error
}

type schedEventKind int

const (
	eventSuspended schedEventKind = iota
	eventFinished
)

type schedEvent struct {
	handle coro.Handle
	kind   schedEventKind
	err    error
}

// NewScheduler creates an empty Scheduler with no fibers registered.
func NewScheduler() *Scheduler {
	return &Scheduler{
		fibers:  map[coro.Handle]*fiberState{},
		control: make(chan schedEvent),
	}
}

var _ coro.Runtime = (*Scheduler)(nil)

// Current implements coro.Runtime.
func (s *Scheduler) Current() coro.Handle { return s.current }

// Suspend implements coro.Runtime. It must only be called by the fiber
// goroutine currently holding the baton.
func (s *Scheduler) Suspend() {
	h := s.current
	s.control <- schedEvent{handle: h, kind: eventSuspended}
	<-s.fibers[h].resume
}

// Wakeup implements coro.Runtime. Waking an unknown, already-finished, or
// already-queued handle is a no-op, per the idempotence contract on
// [coro.Runtime.Wakeup].
func (s *Scheduler) Wakeup(h coro.Handle) {
	fib, ok := s.fibers[h]
	if !ok || fib.done || fib.queued {
		return
	}
	fib.queued = true
	s.ready = append(s.ready, h)
}

// spawn registers a new fiber and marks it immediately runnable. The fiber
// goroutine is started right away but blocks until the driver loop
// dispatches it for the first time.
func (s *Scheduler) spawn(name string, fn func(rt coro.Runtime) error) coro.Handle {
	s.nextHandle++
	h := s.nextHandle
	fib := &fiberState{info: Info{Name: name, Handle: uint64(h)}, resume: make(chan struct{}), queued: true}
	s.fibers[h] = fib
	s.ready = append(s.ready, h)

	go func() {
		<-fib.resume
		err := runRecovered(func() error { return fn(s) })
		s.control <- schedEvent{handle: h, kind: eventFinished, err: err}
	}()

	return h
}

// run drives the scheduler until every fiber it knows about has finished.
// It panics if the ready queue empties while fibers remain unfinished —
// the cooperative equivalent of Go's own "all goroutines are asleep -
// deadlock!" fatal error, since nothing left in the system could ever wake
// them.
func (s *Scheduler) run() {
	for {
		if len(s.ready) == 0 {
			if s.allDone() {
				return
			}
			panic("fiber: deadlock — no runnable fiber but some are still parked")
		}

		h := s.ready[0]
		s.ready = s.ready[1:]
		fib := s.fibers[h]
		fib.queued = false
		s.current = h

		fib.resume <- struct{}{}
		ev := <-s.control

		switch ev.kind {
		case eventSuspended:
			// Parked somewhere (the fiber pushed itself onto a waitqueue
			// before calling Suspend); nothing more to do until woken.
		case eventFinished:
			fib.done = true
			fib.err = ev.err
			if s.onFinish != nil {
				s.onFinish(h, fib)
			}
		}
	}
}

func (s *Scheduler) allDone() bool {
	for _, fib := range s.fibers {
		if !fib.done {
			return false
		}
	}
	return true
}
