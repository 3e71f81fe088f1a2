package fiber

import (
	"errors"
	"fmt"

	"github.com/baxromumarov/corobus/coro"
)

// Info identifies a fiber for attribution in error reporting and
// observability hooks. Handle is the dispatch-order identity the
// Scheduler assigned it, not a coroutine-identity concept a caller
// looks up by — it only has meaning relative to other fibers spawned
// into the same Group.
type Info struct {
	Name   string
	Handle uint64
}

// Error wraps a fiber's failure together with the [Info] of the fiber
// that produced it. Group wraps every fiber failure in an *Error so
// callers can attribute an error to a specific fiber, and — since
// fibers are dispatched strictly in spawn order rather than truly
// concurrently — tell which dispatch slot was running when it failed.
type Error struct {
	Fiber Info
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fiber %q (dispatch #%d) failed: %v", e.Fiber.Name, e.Fiber.Handle, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsFiberError reports whether err (or any error in its chain) is an *Error.
func IsFiberError(err error) bool {
	if err == nil {
		return false
	}
	var fe *Error
	return errors.As(err, &fe)
}

// CauseOf unwraps the first *Error in err's chain and returns its
// underlying cause. If err is not an *Error, it is returned as-is.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Err
	}
	return err
}

// AllErrors recursively collects every *Error from err's chain, including
// errors wrapped via errors.Join (as Group's Collect policy does).
// Returns nil if none are found.
func AllErrors(err error) []*Error {
	if err == nil {
		return nil
	}
	var out []*Error
	collectErrors(err, &out)
	return out
}

func collectErrors(err error, out *[]*Error) {
	switch e := err.(type) {
	case *Error:
		*out = append(*out, e)
	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectErrors(sub, out)
		}
	case interface{ Unwrap() error }:
		collectErrors(e.Unwrap(), out)
	}
}

// Policy determines how a [Group] aggregates fiber failures.
type Policy int

const (
	// FailFast keeps only the first fiber error; later ones are still
	// run to completion (fibers are cooperative, so there is no
	// preemption to cancel them with — spec.md's non-goals exclude
	// preemption from the bus, and this runtime doesn't add it either),
	// but Group.Wait reports only the first failure.
	FailFast Policy = iota

	// Collect gathers every fiber error and joins them via errors.Join.
	Collect
)

// config holds Group construction options.
type config struct {
	policy  Policy
	onSpawn func(Info)
	onDone  func(Info, error)
}

// Option configures a [Group].
type Option func(*config)

// WithPolicy sets the error-aggregation policy. Default is [FailFast].
func WithPolicy(p Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithOnSpawn registers a hook invoked synchronously when each fiber is
// registered with the scheduler, before it first runs.
func WithOnSpawn(fn func(Info)) Option {
	return func(c *config) { c.onSpawn = fn }
}

// WithOnDone registers a hook invoked when each fiber finishes, whether it
// succeeded, returned an error, or panicked.
func WithOnDone(fn func(Info, error)) Option {
	return func(c *config) { c.onDone = fn }
}

// Spawner lets fiber bodies register further fibers into the same Group.
type Spawner interface {
	// Spawn registers a new fiber. fn receives the [coro.Runtime] view
	// the new fiber runs under — the same one every fiber in the Group
	// shares, since they all execute on one Scheduler.
	Spawn(name string, fn func(rt coro.Runtime) error)
}

// Group owns a [Scheduler] and aggregates the outcome of every fiber
// spawned into it, mirroring how a structured-concurrency scope joins
// goroutines — except here the "goroutines" never truly run concurrently,
// so no context cancellation or WaitGroup is needed to keep them in line.
type Group struct {
	sched    *Scheduler
	cfg      config
	firstErr *Error
	errs     []*Error
	waited   bool
	running  bool
}

var _ Spawner = (*Group)(nil)

// New creates an empty Group. Spawn fibers into it, then call Wait.
func New(opts ...Option) *Group {
	cfg := config{policy: FailFast}
	for _, o := range opts {
		o(&cfg)
	}
	g := &Group{sched: NewScheduler(), cfg: cfg}
	g.sched.onFinish = g.recordFinish
	return g
}

// Run creates a Group, lets fn register fibers into it, then waits for all
// of them to finish and returns the aggregated error.
func Run(fn func(g *Group), opts ...Option) error {
	g := New(opts...)
	fn(g)
	return g.Wait()
}

// Spawn implements Spawner. It may be called before Wait or from a fiber
// body while Wait is running; it panics once Wait has returned.
func (g *Group) Spawn(name string, fn func(rt coro.Runtime) error) {
	if g.waited && !g.running {
		panic("fiber: Spawn called after Group.Wait")
	}
	h := g.sched.spawn(name, fn)
	if g.cfg.onSpawn != nil {
		g.cfg.onSpawn(Info{Name: name, Handle: uint64(h)})
	}
}

// Runtime returns the coro.Runtime every fiber in g runs under. Useful for
// wiring a [corobus.Bus] before any fiber has spawned.
func (g *Group) Runtime() coro.Runtime { return g.sched }

// Wait drives the scheduler until every spawned fiber has finished, then
// returns the aggregated error per the Group's [Policy]. Wait is idempotent.
func (g *Group) Wait() error {
	if !g.waited {
		g.waited = true
		g.running = true
		g.sched.run()
		g.running = false
	}
	return g.result()
}

func (g *Group) recordFinish(_ coro.Handle, fib *fiberState) {
	if fib.err == nil {
		if g.cfg.onDone != nil {
			g.cfg.onDone(fib.info, nil)
		}
		return
	}

	fe := &Error{Fiber: fib.info, Err: fib.err}
	switch g.cfg.policy {
	case FailFast:
		if g.firstErr == nil {
			g.firstErr = fe
		}
	case Collect:
		g.errs = append(g.errs, fe)
	}
	if g.cfg.onDone != nil {
		g.cfg.onDone(fib.info, fib.err)
	}
}

func (g *Group) result() error {
	switch g.cfg.policy {
	case FailFast:
		if g.firstErr != nil {
			return g.firstErr
		}
		return nil
	case Collect:
		if len(g.errs) == 0 {
			return nil
		}
		errs := make([]error, len(g.errs))
		for i, e := range g.errs {
			errs[i] = e
		}
		return errors.Join(errs...)
	default:
		return nil
	}
}
