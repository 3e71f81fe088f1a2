package corobus

import (
	"errors"

	"github.com/baxromumarov/corobus/log"
	"github.com/baxromumarov/corobus/waitqueue"
)

// channel is never handed to callers directly; every operation on it goes
// through a Bus method taking a Handle, per the bus-owns-channels resource
// discipline invariants I4-I6 depend on.
type channel struct {
	capacity    int
	buffer      []uint32
	sendWaiters *waitqueue.Queue
	recvWaiters *waitqueue.Queue
	logger      log.Logger
}

func (c *channel) tryPush(x uint32) bool {
	if len(c.buffer) >= c.capacity {
		return false
	}
	c.buffer = append(c.buffer, x)
	return true
}

func (c *channel) tryPop() (uint32, bool) {
	if len(c.buffer) == 0 {
		return 0, false
	}
	x := c.buffer[0]
	c.buffer = c.buffer[1:]
	return x, true
}

func (c *channel) tryPushN(xs []uint32) int {
	free := c.capacity - len(c.buffer)
	if free <= 0 {
		return 0
	}
	k := len(xs)
	if k > free {
		k = free
	}
	c.buffer = append(c.buffer, xs[:k]...)
	return k
}

func (c *channel) tryPopN(k int) []uint32 {
	if k > len(c.buffer) {
		k = len(c.buffer)
	}
	out := append([]uint32(nil), c.buffer[:k]...)
	c.buffer = c.buffer[k:]
	return out
}

// TrySend appends x to the channel at h without blocking. It returns
// ErrWouldBlock if the buffer is full and ErrNoChannel if h is not live.
func (b *Bus) TrySend(h Handle, x uint32) error {
	ch, ok := b.chanAt(h)
	if !ok {
		return b.fail("TrySend", h, NoChannel)
	}
	if !ch.tryPush(x) {
		return b.fail("TrySend", h, WouldBlock)
	}
	b.counters.sent++
	b.wakeOne(ch.recvWaiters, h, "recv")
	b.succeed(h)
	return nil
}

// Send appends x to the channel at h, parking the calling coroutine until
// space is available if the buffer is currently full. It returns
// ErrNoChannel if the channel is absent at entry or vanishes (closes)
// while parked; it never returns ErrWouldBlock.
func (b *Bus) Send(h Handle, x uint32) error {
	savedGen := b.generationAt(h)
	for {
		err := b.TrySend(h, x)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return err
		}

		ch, ok := b.chanAt(h)
		if !ok {
			return b.fail("Send", h, NoChannel)
		}
		b.counters.blockedSend++
		b.parkSelf(ch.sendWaiters, h, "send")
		if b.generationAt(h) != savedGen {
			return b.fail("Send", h, NoChannel)
		}
	}
}

// TryRecv removes and returns the oldest message on the channel at h
// without blocking. It returns ErrWouldBlock if the buffer is empty and
// ErrNoChannel if h is not live.
func (b *Bus) TryRecv(h Handle) (uint32, error) {
	ch, ok := b.chanAt(h)
	if !ok {
		return 0, b.fail("TryRecv", h, NoChannel)
	}
	x, ok := ch.tryPop()
	if !ok {
		return 0, b.fail("TryRecv", h, WouldBlock)
	}
	b.counters.recv++
	b.wakeOne(ch.sendWaiters, h, "send")
	b.succeed(h)
	return x, nil
}

// Recv removes and returns the oldest message on the channel at h,
// parking the calling coroutine until one is available if the buffer is
// currently empty. It returns ErrNoChannel if the channel is absent at
// entry or vanishes while parked; it never returns ErrWouldBlock.
func (b *Bus) Recv(h Handle) (uint32, error) {
	savedGen := b.generationAt(h)
	for {
		x, err := b.TryRecv(h)
		if err == nil {
			return x, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return 0, err
		}

		ch, ok := b.chanAt(h)
		if !ok {
			return 0, b.fail("Recv", h, NoChannel)
		}
		b.counters.blockedRecv++
		b.parkSelf(ch.recvWaiters, h, "recv")
		if b.generationAt(h) != savedGen {
			return 0, b.fail("Recv", h, NoChannel)
		}
	}
}

// TrySendV appends as many of xs as currently fit into the channel at h,
// without blocking. An empty xs trivially succeeds with 0. Otherwise, if
// the buffer has no free space at all, it returns ErrWouldBlock; if the
// channel is absent, ErrNoChannel. On success it returns k = min(len(xs),
// free space), k >= 1.
func (b *Bus) TrySendV(h Handle, xs []uint32) (int, error) {
	if len(xs) == 0 {
		b.succeed(h)
		return 0, nil
	}
	ch, ok := b.chanAt(h)
	if !ok {
		return 0, b.fail("TrySendV", h, NoChannel)
	}
	k := ch.tryPushN(xs)
	if k == 0 {
		return 0, b.fail("TrySendV", h, WouldBlock)
	}
	b.counters.sent += uint64(k)
	b.wakeN(ch.recvWaiters, h, "recv", k)
	b.succeed(h)
	return k, nil
}

// SendV wraps TrySendV with the park-and-recheck idiom, resuming as soon
// as any space appears and transferring as many elements as currently
// fit. A single call sends at most one batch (k >= 1 on success, possibly
// less than len(xs)); it does not loop to fill a larger batch.
func (b *Bus) SendV(h Handle, xs []uint32) (int, error) {
	if len(xs) == 0 {
		b.succeed(h)
		return 0, nil
	}
	savedGen := b.generationAt(h)
	for {
		k, err := b.TrySendV(h, xs)
		if err == nil {
			return k, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return 0, err
		}

		ch, ok := b.chanAt(h)
		if !ok {
			return 0, b.fail("SendV", h, NoChannel)
		}
		b.counters.blockedSend++
		b.parkSelf(ch.sendWaiters, h, "send")
		if b.generationAt(h) != savedGen {
			return 0, b.fail("SendV", h, NoChannel)
		}
	}
}

// TryRecvV removes up to capacity elements from the channel at h, without
// blocking. A capacity of 0 trivially succeeds with nil. Otherwise, if the
// buffer is empty, it returns ErrWouldBlock; if the channel is absent,
// ErrNoChannel. On success it returns k = min(capacity, len(buffer)), k >= 1.
func (b *Bus) TryRecvV(h Handle, capacity int) ([]uint32, error) {
	if capacity == 0 {
		b.succeed(h)
		return nil, nil
	}
	ch, ok := b.chanAt(h)
	if !ok {
		return nil, b.fail("TryRecvV", h, NoChannel)
	}
	if len(ch.buffer) == 0 {
		return nil, b.fail("TryRecvV", h, WouldBlock)
	}
	out := ch.tryPopN(capacity)
	b.counters.recv += uint64(len(out))
	b.wakeN(ch.sendWaiters, h, "send", len(out))
	b.succeed(h)
	return out, nil
}

// RecvV wraps TryRecvV with the park-and-recheck idiom, resuming as soon
// as any data appears and transferring as many elements as currently fit
// within capacity. A single call receives at most one batch.
func (b *Bus) RecvV(h Handle, capacity int) ([]uint32, error) {
	if capacity == 0 {
		b.succeed(h)
		return nil, nil
	}
	savedGen := b.generationAt(h)
	for {
		out, err := b.TryRecvV(h, capacity)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return nil, err
		}

		ch, ok := b.chanAt(h)
		if !ok {
			return nil, b.fail("RecvV", h, NoChannel)
		}
		b.counters.blockedRecv++
		b.parkSelf(ch.recvWaiters, h, "recv")
		if b.generationAt(h) != savedGen {
			return nil, b.fail("RecvV", h, NoChannel)
		}
	}
}

func (b *Bus) parkSelf(q *waitqueue.Queue, h Handle, kind string) {
	b.loggerFor(h).WaiterParked(int(h), kind)
	q.ParkSelf()
}

func (b *Bus) wakeOne(q *waitqueue.Queue, h Handle, kind string) {
	if q.WakeOne() {
		b.loggerFor(h).WaiterWoken(int(h), kind, 1)
	}
}

func (b *Bus) wakeN(q *waitqueue.Queue, h Handle, kind string, k int) {
	if n := q.WakeN(k); n > 0 {
		b.loggerFor(h).WaiterWoken(int(h), kind, n)
	}
}

func (b *Bus) loggerFor(h Handle) log.Logger {
	if ch, ok := b.chanAt(h); ok {
		return ch.logger
	}
	return b.logger
}
