// Package coro defines the minimal seam corobus needs from a cooperative
// coroutine runtime. It deliberately says nothing about how coroutines are
// created, how their stacks are switched, or how the scheduler picks what
// runs next — that machinery lives entirely outside this module.
package coro

// Handle identifies a coroutine to the runtime. The bus never interprets a
// Handle beyond storing and comparing it; ownership and lifetime are the
// runtime's concern.
type Handle uint64

// Runtime is the contract corobus relies on. An embedder supplies one
// implementation shared by every Bus; corobus never constructs a Runtime
// itself.
//
// Implementations must satisfy one guarantee beyond the method docs: at
// most one goroutine (or native thread) may be executing runtime-owned code
// on corobus's behalf at any instant. Every invariant in the channel and
// bus state machines depends on that exclusivity rather than on locks.
type Runtime interface {
	// Current returns a handle to the coroutine presently running. It is
	// only ever called from within that coroutine, never from the
	// scheduler itself.
	Current() Handle

	// Suspend parks the calling coroutine until a future Wakeup(h) names
	// its handle and the scheduler redispatches it. Suspend must not
	// return early, and it must not return at all until some coroutine —
	// possibly one with no relationship to why this one parked — has
	// called Wakeup on it.
	Suspend()

	// Wakeup marks h runnable. It must be idempotent: waking a coroutine
	// that is already runnable, or that has already finished, is a
	// harmless no-op from corobus's point of view.
	Wakeup(h Handle)
}
