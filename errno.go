package corobus

import "fmt"

// Errno classifies the outcome of a bus operation, mirroring the
// process-wide last-error slot spec.md describes. Every exported method
// also returns an idiomatic Go error wrapping the Errno that produced it,
// so callers can use either style.
type Errno int

const (
	// NONE means the operation succeeded.
	NONE Errno = iota

	// NoChannel means the handle did not refer to a live channel at the
	// time of the call, the channel vanished while the caller was
	// parked, or (for broadcast) the bus had zero open channels.
	NoChannel

	// WouldBlock means a non-blocking call could not make progress.
	WouldBlock
)

func (e Errno) String() string {
	switch e {
	case NONE:
		return "NONE"
	case NoChannel:
		return "NO_CHANNEL"
	case WouldBlock:
		return "WOULD_BLOCK"
	default:
		return fmt.Sprintf("Errno(%d)", int(e))
	}
}

// Error implements error, so an Errno can be compared directly via
// errors.Is against the Err* sentinels below without unwrapping a BusError.
func (e Errno) Error() string { return e.String() }

// Sentinel errors for use with errors.Is against any error returned by a
// Bus method (they are reached through BusError.Unwrap).
var (
	ErrNoChannel  error = NoChannel
	ErrWouldBlock error = WouldBlock
)

// BusError attributes an Errno to the operation and handle that produced
// it, mirroring the teacher's *TaskError{Task, Err} attribution pattern.
type BusError struct {
	Op     string
	Handle Handle
	Errno  Errno
}

func (e *BusError) Error() string {
	return fmt.Sprintf("corobus: %s(handle=%d): %s", e.Op, e.Handle, e.Errno)
}

func (e *BusError) Unwrap() error { return e.Errno }

func busErr(op string, h Handle, errno Errno) error {
	if errno == NONE {
		return nil
	}
	return &BusError{Op: op, Handle: h, Errno: errno}
}
