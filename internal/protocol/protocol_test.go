package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	assert.Equal(t, Code(1), CmdHello)
	assert.Equal(t, Code(7), CmdStepOut)
	assert.Equal(t, Code(1005), EvLocation)
	assert.Equal(t, "list_toggle_expand", CmdListToggleExpand.String())
	assert.True(t, CmdListReset.Known())
	assert.Equal(t, "code(99)", Code(99).String())
	assert.True(t, EvShutdown.IsEvent())
	assert.False(t, CmdSource.IsEvent())
	assert.False(t, Code(99).Known())
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(8)
	assert.Equal(t, 8, b.Cap())

	_, err := b.Load()
	assert.ErrorIs(t, err, ErrEmptyText)

	require.NoError(t, b.Store("1234567"))
	text, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, "1234567", text)

	assert.ErrorIs(t, b.Store("12345678"), ErrTooLarge)

	require.NoError(t, b.Store(""))
	text, err = b.Load()
	require.NoError(t, err)
	assert.Empty(t, text)

	assert.Equal(t, DefaultBufferSize, NewBuffer(0).Cap())
}

func TestFrame(t *testing.T) {
	b := NewBuffer(64)
	m := Event(EvStopped, 3, -1, "héllo")

	frame, err := b.Frame(m)
	require.NoError(t, err)
	assert.Equal(t, byte(FrameMessage), frame[0])
	assert.Equal(t, byte(0), frame[len(frame)-1])

	typ, got, err := ParseFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, FrameMessage, typ)
	assert.Equal(t, m, got)

	typ, _, err = ParseFrame(AckFrame())
	require.NoError(t, err)
	assert.Equal(t, FrameAck, typ)

	t.Run("too large", func(t *testing.T) {
		_, err := b.Frame(Event(EvLogMessage, 0, 0, strings.Repeat("x", 64)))
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, frame := range [][]byte{
			nil,
			{9},
			{byte(FrameAck), 0},
			{byte(FrameMessage), 1, 0, 0},
			append([]byte{byte(FrameMessage)}, make([]byte, 12)...),
			append(append([]byte{byte(FrameMessage)}, make([]byte, 12)...), 'a'),
		} {
			_, _, err := ParseFrame(frame)
			assert.ErrorIs(t, err, ErrBadFrame, "%v", frame)
		}
	})
}
