package corobus

// Stats is a point-in-time snapshot of bus activity, mirroring the
// teacher's PoolStats: purely observational, no behavioral effect.
type Stats struct {
	ChannelsOpen int    // channels currently open
	SendWaiters  int    // coroutines parked across all send_waiters queues
	RecvWaiters  int    // coroutines parked across all recv_waiters queues
	Sent         uint64 // cumulative successful message transfers into any channel
	Recv         uint64 // cumulative successful message transfers out of any channel
	BlockedSend  uint64 // cumulative park events on a send_waiters queue
	BlockedRecv  uint64 // cumulative park events on a recv_waiters queue

	// BroadcastRetries counts how many times a blocking Broadcast found a
	// full channel and had to park and retry from scratch.
	BroadcastRetries uint64
}
