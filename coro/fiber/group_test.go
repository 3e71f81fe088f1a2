package fiber_test

import (
	"errors"
	"testing"

	"github.com/baxromumarov/corobus/coro"
	"github.com/baxromumarov/corobus/coro/fiber"
	"github.com/stretchr/testify/require"
)

func TestGroupFailFastKeepsFirstError(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	err := fiber.Run(func(g *fiber.Group) {
		g.Spawn("a", func(rt coro.Runtime) error { return errA })
		g.Spawn("b", func(rt coro.Runtime) error { return errB })
	}, fiber.WithPolicy(fiber.FailFast))

	require.Error(t, err)
	require.True(t, errors.Is(err, errA))
	require.False(t, errors.Is(err, errB))
}

func TestGroupCollectJoinsEveryError(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	err := fiber.Run(func(g *fiber.Group) {
		g.Spawn("a", func(rt coro.Runtime) error { return errA })
		g.Spawn("b", func(rt coro.Runtime) error { return errB })
	}, fiber.WithPolicy(fiber.Collect))

	require.Error(t, err)
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
	require.Len(t, fiber.AllErrors(err), 2)
}

func TestGroupWaitIsIdempotent(t *testing.T) {
	g := fiber.New()
	g.Spawn("only", func(rt coro.Runtime) error { return nil })

	require.NoError(t, g.Wait())
	require.NoError(t, g.Wait())
}

func TestGroupSpawnAfterWaitPanics(t *testing.T) {
	g := fiber.New()
	g.Spawn("only", func(rt coro.Runtime) error { return nil })
	require.NoError(t, g.Wait())

	require.Panics(t, func() {
		g.Spawn("late", func(rt coro.Runtime) error { return nil })
	})
}

func TestGroupOnDoneHookFiresForEveryFiber(t *testing.T) {
	boom := errors.New("boom")
	var done []string

	err := fiber.Run(func(g *fiber.Group) {
		g.Spawn("ok", func(rt coro.Runtime) error { return nil })
		g.Spawn("bad", func(rt coro.Runtime) error { return boom })
	}, fiber.WithOnDone(func(info fiber.Info, err error) {
		done = append(done, info.Name)
	}))

	require.Error(t, err)
	require.ElementsMatch(t, []string{"ok", "bad"}, done)
}

func TestGroupOnSpawnHookFiresBeforeRun(t *testing.T) {
	var spawned []string

	g := fiber.New(fiber.WithOnSpawn(func(info fiber.Info) {
		spawned = append(spawned, info.Name)
	}))
	g.Spawn("a", func(rt coro.Runtime) error { return nil })
	require.Equal(t, []string{"a"}, spawned)

	g.Spawn("b", func(rt coro.Runtime) error { return nil })
	require.Equal(t, []string{"a", "b"}, spawned)

	require.NoError(t, g.Wait())
}

func TestGroupFiberCanSpawnMoreFibers(t *testing.T) {
	var order []string

	g := fiber.New()
	g.Spawn("parent", func(rt coro.Runtime) error {
		order = append(order, "parent")
		g.Spawn("child", func(rt coro.Runtime) error {
			order = append(order, "child")
			return nil
		})
		return nil
	})

	require.NoError(t, g.Wait())
	require.Equal(t, []string{"parent", "child"}, order)
}
