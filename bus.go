// Package corobus implements a coroutine bus: an in-process,
// single-threaded, cooperative multi-channel message-passing primitive.
// Coroutines sharing one OS thread exchange uint32 messages through
// bounded FIFO channels addressed by small integer handles.
//
// Nothing in this package is safe for concurrent use by more than one
// goroutine at a time. Correctness instead rests on the cooperative
// scheduling contract described by [coro.Runtime]: exactly one goroutine
// ever runs bus-facing code at once, handed off deliberately at
// [coro.Runtime.Suspend] points. See the coro/fiber package for a
// reference scheduler that provides this.
package corobus

import (
	"time"

	"github.com/baxromumarov/corobus/coro"
	"github.com/baxromumarov/corobus/log"
	"github.com/baxromumarov/corobus/waitqueue"
)

// Handle is a nonnegative slot index into a Bus. A Handle is live iff its
// slot currently holds a channel and the generation observed when a call
// began still matches the slot's current generation.
type Handle int

// Bus is a container of channels addressed by Handle, each slot carrying a
// generation counter so a stale handle can detect that its channel closed
// (and possibly the slot was reused) while it was parked. A Bus is not
// safe for concurrent use; see the package doc.
type Bus struct {
	rt          coro.Runtime
	slots       []*channel
	generations []uint64
	lastErrno   Errno
	logger      log.Logger

	metricsInterval time.Duration
	onMetrics       func(Stats)
	sinceMetrics    time.Duration

	counters statsCounters
}

type statsCounters struct {
	sent             uint64
	recv             uint64
	blockedSend      uint64
	blockedRecv      uint64
	broadcastRetries uint64
}

// NewBus creates an empty Bus driven by rt. rt supplies the cooperative
// suspend/wakeup primitives every blocking operation parks on; see
// coro/fiber.NewScheduler for a ready-to-use implementation.
//
// Panics if rt is nil.
func NewBus(rt coro.Runtime, opts ...BusOption) *Bus {
	if rt == nil {
		panic("corobus: NewBus requires a non-nil coro.Runtime")
	}

	cfg := busConfig{logger: log.Noop}
	for _, o := range opts {
		o(&cfg)
	}

	b := &Bus{
		rt:              rt,
		slots:           make([]*channel, cfg.initialSlots),
		generations:     make([]uint64, cfg.initialSlots),
		logger:          cfg.logger,
		metricsInterval: cfg.metricsInterval,
		onMetrics:       cfg.onMetrics,
	}
	return b
}

// Errno returns the last error code set by any non-errno operation on b.
func (b *Bus) Errno() Errno { return b.lastErrno }

// SetErrno overwrites the last error code, mirroring spec's errno_set.
func (b *Bus) SetErrno(e Errno) { b.lastErrno = e }

// ChannelOpen creates a bounded channel of the given capacity and returns
// its handle. The lowest-indexed empty slot is reused if one exists;
// otherwise the slot table grows by one. A reused slot keeps the
// generation counter left by its last close; a newly grown slot starts at
// generation 1.
//
// Panics if capacity <= 0.
func (b *Bus) ChannelOpen(capacity int, opts ...ChannelOption) Handle {
	if capacity <= 0 {
		panic("corobus: ChannelOpen requires capacity > 0")
	}

	ccfg := channelConfig{logger: b.logger}
	for _, o := range opts {
		o(&ccfg)
	}

	ch := &channel{
		capacity:    capacity,
		sendWaiters: waitqueue.New(b.rt),
		recvWaiters: waitqueue.New(b.rt),
		logger:      ccfg.logger,
	}

	for i, slot := range b.slots {
		if slot == nil {
			b.slots[i] = ch
			if b.generations[i] == 0 {
				b.generations[i] = 1
			}
			b.lastErrno = NONE
			b.logger.ChannelOpened(i, capacity)
			return Handle(i)
		}
	}

	b.slots = append(b.slots, ch)
	b.generations = append(b.generations, 1)
	h := len(b.slots) - 1
	b.lastErrno = NONE
	b.logger.ChannelOpened(h, capacity)
	return Handle(h)
}

// ChannelClose detaches and destroys the channel at h. It is idempotent
// and silent (no errno change) if h is out of range or already empty.
// Per invariant I5, the slot's generation is bumped before any parked
// waiter is woken, so every woken waiter observes a generation mismatch.
func (b *Bus) ChannelClose(h Handle) {
	ch, ok := b.chanAt(h)
	if !ok {
		return
	}

	b.slots[h] = nil
	b.generations[h]++

	ch.sendWaiters.WakeAll()
	ch.recvWaiters.WakeAll()

	b.logger.ChannelClosed(int(h), b.generations[h])
}

// Close destroys every remaining channel on the bus. It panics if any
// channel still has a non-empty wait queue — callers are responsible for
// closing channels (which wakes their waiters) before closing the bus,
// mirroring spec's bus_delete precondition.
func (b *Bus) Close() {
	for _, ch := range b.slots {
		if ch == nil {
			continue
		}
		if !ch.sendWaiters.Empty() || !ch.recvWaiters.Empty() {
			panic("corobus: Close requires every channel's wait queues to be empty")
		}
	}
	for i, ch := range b.slots {
		if ch == nil {
			continue
		}
		b.slots[i] = nil
		b.generations[i]++
	}
}

// Stats returns a point-in-time snapshot of bus activity.
func (b *Bus) Stats() Stats {
	s := Stats{
		Sent:             b.counters.sent,
		Recv:             b.counters.recv,
		BlockedSend:      b.counters.blockedSend,
		BlockedRecv:      b.counters.blockedRecv,
		BroadcastRetries: b.counters.broadcastRetries,
	}
	for _, ch := range b.slots {
		if ch == nil {
			continue
		}
		s.ChannelsOpen++
		s.SendWaiters += ch.sendWaiters.Len()
		s.RecvWaiters += ch.recvWaiters.Len()
	}
	return s
}

// Tick advances the bus's metrics clock by d, firing the WithMetrics
// callback (if configured) for every interval elapsed. The bus has no
// timer of its own — cooperative scheduling means nothing runs unless a
// coroutine calls into it — so callers that want periodic metrics must
// drive Tick themselves, e.g. from a coroutine that sleeps and wakes on
// its own schedule.
func (b *Bus) Tick(d time.Duration) {
	if b.onMetrics == nil {
		return
	}
	b.sinceMetrics += d
	for b.sinceMetrics >= b.metricsInterval {
		b.sinceMetrics -= b.metricsInterval
		b.onMetrics(b.Stats())
	}
}

func (b *Bus) chanAt(h Handle) (*channel, bool) {
	if h < 0 || int(h) >= len(b.slots) {
		return nil, false
	}
	ch := b.slots[h]
	return ch, ch != nil
}

func (b *Bus) generationAt(h Handle) uint64 {
	if h < 0 || int(h) >= len(b.generations) {
		return 0
	}
	return b.generations[h]
}

func (b *Bus) fail(op string, h Handle, errno Errno) error {
	b.lastErrno = errno
	return busErr(op, h, errno)
}

func (b *Bus) succeed(h Handle) {
	b.lastErrno = NONE
}
