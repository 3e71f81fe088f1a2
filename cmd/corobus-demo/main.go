package main

import (
	"fmt"
	"os"
	"time"

	"github.com/baxromumarov/corobus"
	"github.com/baxromumarov/corobus/coro"
	"github.com/baxromumarov/corobus/coro/fiber"
	"github.com/baxromumarov/corobus/log/zlog"
)

func main() {
	logger := zlog.NewZerologLogger(os.Stdout)

	var stats corobus.Stats
	var bus *corobus.Bus
	err := fiber.Run(func(g *fiber.Group) {
		bus = corobus.NewBus(
			g.Runtime(),
			corobus.WithLogger(logger),
			corobus.WithMetrics(5*time.Millisecond, func(s corobus.Stats) { stats = s }),
		)

		orders := bus.ChannelOpen(4)
		alerts := bus.ChannelOpen(4)

		g.Spawn("order-producer", func(rt coro.Runtime) error {
			for i := uint32(0); i < 8; i++ {
				if err := bus.Send(orders, i); err != nil {
					return err
				}
			}
			return nil
		})

		g.Spawn("order-consumer", func(rt coro.Runtime) error {
			for i := 0; i < 8; i++ {
				if _, err := bus.Recv(orders); err != nil {
					return err
				}
			}
			return nil
		})

		g.Spawn("alerter", func(rt coro.Runtime) error {
			return bus.Broadcast(1)
		})

		g.Spawn("alert-listener", func(rt coro.Runtime) error {
			_, err := bus.Recv(alerts)
			return err
		})

		// Tick is driven explicitly rather than by a wall clock; a host
		// embedding corobus in an event loop would call this once per
		// iteration.
		bus.Tick(5 * time.Millisecond)
	})

	fmt.Println("run result:", err)
	fmt.Printf("stats: %+v\n", stats)

	// Every fiber has finished, so no coroutine is parked on any
	// channel's wait queues — Close's precondition holds.
	bus.Close()
}
