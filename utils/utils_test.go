package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesMD5(t *testing.T) {
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", BytesMD5(nil))
	require.Equal(t, `"900150983cd24fb0d6963f7d28e17f72"`, ETag([]byte("abc")))
}

func TestInitLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, InitLogger("release", "warn"))
	require.False(t, Logger.Core().Enabled(-1))
	require.Error(t, InitLogger("debug", "loud"))
}

func TestRequestID(t *testing.T) {
	a, b := RequestID(), RequestID()
	require.Len(t, a, 36)
	require.NotEqual(t, a, b)
}
