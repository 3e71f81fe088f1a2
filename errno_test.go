package corobus_test

import (
	"errors"
	"testing"

	"github.com/baxromumarov/corobus"
	"github.com/stretchr/testify/require"
)

func TestErrnoStringAndError(t *testing.T) {
	require.Equal(t, "NONE", corobus.NONE.String())
	require.Equal(t, "NO_CHANNEL", corobus.NoChannel.String())
	require.Equal(t, "WOULD_BLOCK", corobus.WouldBlock.String())
	require.Equal(t, corobus.NoChannel.String(), corobus.NoChannel.Error())
}

func TestBusErrorUnwrapsToErrno(t *testing.T) {
	err := &corobus.BusError{Op: "TrySend", Handle: 3, Errno: corobus.WouldBlock}
	require.True(t, errors.Is(err, corobus.ErrWouldBlock))
	require.False(t, errors.Is(err, corobus.ErrNoChannel))
	require.Contains(t, err.Error(), "TrySend")
}
