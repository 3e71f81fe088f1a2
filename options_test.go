package corobus_test

import (
	"testing"
	"time"

	"github.com/baxromumarov/corobus"
	"github.com/baxromumarov/corobus/coro/fiber"
	"github.com/baxromumarov/corobus/log"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	opened []int
}

func (r *recordingLogger) ChannelOpened(handle int, capacity int) { r.opened = append(r.opened, handle) }
func (r *recordingLogger) ChannelClosed(int, uint64)              {}
func (r *recordingLogger) BroadcastRetry(int)                     {}
func (r *recordingLogger) WaiterParked(int, string)               {}
func (r *recordingLogger) WaiterWoken(int, string, int)           {}

var _ log.Logger = (*recordingLogger)(nil)

func TestWithInitialSlotsPresizesSlotTable(t *testing.T) {
	g := fiber.New()
	bus := corobus.NewBus(g.Runtime(), corobus.WithInitialSlots(4))

	h := bus.ChannelOpen(1)
	require.Equal(t, corobus.Handle(0), h)
}

func TestWithInitialSlotsPanicsOnNegative(t *testing.T) {
	require.Panics(t, func() { corobus.WithInitialSlots(-1) })
}

func TestWithLoggerReceivesChannelOpened(t *testing.T) {
	rl := &recordingLogger{}
	g := fiber.New()
	bus := corobus.NewBus(g.Runtime(), corobus.WithLogger(rl))

	h := bus.ChannelOpen(1)
	require.Equal(t, []int{int(h)}, rl.opened)
}

func TestWithChannelLoggerOverridesBusLogger(t *testing.T) {
	busRl := &recordingLogger{}
	chanRl := &recordingLogger{}
	g := fiber.New()
	bus := corobus.NewBus(g.Runtime(), corobus.WithLogger(busRl))

	h := bus.ChannelOpen(1, corobus.WithChannelLogger(chanRl))
	require.Equal(t, []int{int(h)}, busRl.opened) // ChannelOpen itself logs via the bus logger

	// Subsequent per-channel events go to the override instead.
	require.NoError(t, bus.TrySend(h, 1))
	_, err := bus.TryRecv(h)
	require.NoError(t, err)
}

func TestWithMetricsPanicsOnBadArgs(t *testing.T) {
	require.Panics(t, func() { corobus.WithMetrics(0, func(corobus.Stats) {}) })
	require.Panics(t, func() { corobus.WithMetrics(time.Second, nil) })
}

func TestTickFiresMetricsCallbackOnInterval(t *testing.T) {
	var snapshots []corobus.Stats
	g := fiber.New()
	bus := corobus.NewBus(g.Runtime(), corobus.WithMetrics(time.Second, func(s corobus.Stats) {
		snapshots = append(snapshots, s)
	}))

	bus.ChannelOpen(1)
	bus.Tick(500 * time.Millisecond)
	require.Empty(t, snapshots)

	bus.Tick(600 * time.Millisecond)
	require.Len(t, snapshots, 1)
	require.Equal(t, 1, snapshots[0].ChannelsOpen)
}

func TestChannelOpenPanicsOnNonPositiveCapacity(t *testing.T) {
	g := fiber.New()
	bus := corobus.NewBus(g.Runtime())
	require.Panics(t, func() { bus.ChannelOpen(0) })
	require.Panics(t, func() { bus.ChannelOpen(-1) })
}

func TestNewBusPanicsOnNilRuntime(t *testing.T) {
	require.Panics(t, func() { corobus.NewBus(nil) })
}
