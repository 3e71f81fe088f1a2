package corobus

// openHandles returns every handle with a live channel, in ascending slot
// order. Broadcast re-derives this on every attempt (and every retry)
// rather than caching it, since channels may be opened or closed between
// attempts.
func (b *Bus) openHandles() []Handle {
	var out []Handle
	for i, ch := range b.slots {
		if ch != nil {
			out = append(out, Handle(i))
		}
	}
	return out
}

// TryBroadcast appends x to every currently open channel without
// blocking. It is all-or-nothing: if any channel is full, it returns
// ErrWouldBlock and no channel's buffer changes. If the bus has no open
// channels, it returns ErrNoChannel.
func (b *Bus) TryBroadcast(x uint32) error {
	handles := b.openHandles()
	if len(handles) == 0 {
		return b.fail("TryBroadcast", -1, NoChannel)
	}

	for _, h := range handles {
		ch := b.slots[h]
		if len(ch.buffer) >= ch.capacity {
			return b.fail("TryBroadcast", h, WouldBlock)
		}
	}

	for _, h := range handles {
		ch := b.slots[h]
		ch.buffer = append(ch.buffer, x)
		b.counters.sent++
		b.wakeOne(ch.recvWaiters, h, "recv")
	}
	b.succeed(-1)
	return nil
}

// Broadcast appends x to every currently open channel, parking on the
// first full channel it finds and retrying from scratch (re-scanning open
// channels, since the set may have changed) until every channel has room
// at the same instant. It returns ErrNoChannel if the bus ever has zero
// open channels at the start of an attempt.
func (b *Bus) Broadcast(x uint32) error {
	for {
		handles := b.openHandles()
		if len(handles) == 0 {
			return b.fail("Broadcast", -1, NoChannel)
		}

		fullAt := -1
		for i, h := range handles {
			ch := b.slots[h]
			if len(ch.buffer) >= ch.capacity {
				fullAt = i
				break
			}
		}
		if fullAt == -1 {
			for _, h := range handles {
				ch := b.slots[h]
				ch.buffer = append(ch.buffer, x)
				b.counters.sent++
				b.wakeOne(ch.recvWaiters, h, "recv")
			}
			b.succeed(-1)
			return nil
		}

		h := handles[fullAt]
		ch := b.slots[h]
		b.counters.broadcastRetries++
		b.logger.BroadcastRetry(int(h))
		ch.sendWaiters.ParkSelf()
		// No generation check here: closure of the channel we parked on
		// is handled the same as any other change in the open set —
		// the loop re-scans from scratch on every retry per spec's
		// broadcast retry discretion, rather than trusting a saved
		// reference across the suspension.
	}
}
