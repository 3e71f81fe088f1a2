package corobus

import (
	"time"

	"github.com/baxromumarov/corobus/log"
)

type busConfig struct {
	logger          log.Logger
	initialSlots    int
	metricsInterval time.Duration
	onMetrics       func(Stats)
}

// BusOption configures a [Bus] at construction via [NewBus].
type BusOption func(*busConfig)

// WithLogger attaches a Logger that receives every channel open/close,
// broadcast retry, and wait-queue event the bus produces. The default is
// [log.Noop].
func WithLogger(l log.Logger) BusOption {
	return func(c *busConfig) {
		if l == nil {
			l = log.Noop
		}
		c.logger = l
	}
}

// WithInitialSlots pre-sizes the bus's slot table to n empty slots, so the
// first n calls to ChannelOpen don't grow the underlying arrays.
//
// Panics if n is negative.
func WithInitialSlots(n int) BusOption {
	if n < 0 {
		panic("corobus: WithInitialSlots requires non-negative n")
	}
	return func(c *busConfig) {
		c.initialSlots = n
	}
}

// WithMetrics registers a periodic Stats callback. Since the bus has no
// timer of its own — it is purely cooperative and reacts only to calls
// made on it — fn fires only when the caller drives time forward via
// [Bus.Tick], not on a wall-clock schedule.
//
// Panics if interval <= 0 or fn is nil.
func WithMetrics(interval time.Duration, fn func(Stats)) BusOption {
	if interval <= 0 {
		panic("corobus: WithMetrics requires interval > 0")
	}
	if fn == nil {
		panic("corobus: WithMetrics requires non-nil callback")
	}
	return func(c *busConfig) {
		c.metricsInterval = interval
		c.onMetrics = fn
	}
}

type channelConfig struct {
	logger log.Logger
}

// ChannelOption configures a single channel at [Bus.ChannelOpen].
type ChannelOption func(*channelConfig)

// WithChannelLogger overrides the bus-wide logger for events on this one
// channel only.
func WithChannelLogger(l log.Logger) ChannelOption {
	return func(c *channelConfig) {
		if l == nil {
			l = log.Noop
		}
		c.logger = l
	}
}
