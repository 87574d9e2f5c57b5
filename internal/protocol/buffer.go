package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// DefaultBufferSize is the capacity of one direction of the channel
const DefaultBufferSize = 1 << 20

var (
	ErrTooLarge  = errors.New("text does not fit the buffer")
	ErrBadFrame  = errors.New("malformed frame")
	ErrEmptyText = errors.New("buffer holds no text")
)

// Buffer is the fixed-capacity region one side writes its message text into.
// Text is stored NUL-terminated, so it must be strictly shorter than the capacity.
type Buffer struct {
	data []byte
	n    int
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{data: make([]byte, size)}
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

func (b *Buffer) Fits(text string) bool {
	return len(text) < len(b.data)
}

// Store replaces the buffer contents with text and a terminating NUL.
func (b *Buffer) Store(text string) error {
	if !b.Fits(text) {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrTooLarge, len(text), len(b.data))
	}
	b.n = copy(b.data, text)
	b.data[b.n] = 0
	b.n++
	return nil
}

// Load returns the text up to the first NUL
func (b *Buffer) Load() (string, error) {
	if b.n == 0 {
		return "", ErrEmptyText
	}
	stored := b.data[:b.n]
	if i := bytes.IndexByte(stored, 0); i >= 0 {
		stored = stored[:i]
	}
	return string(stored), nil
}

// FrameType tells message frames from acknowledgements
type FrameType byte

const (
	FrameMessage FrameType = iota + 1
	FrameAck
)

// code, wparam, lparam
const headerSize = 1 + 3*4

// Frame stores m's text in the buffer and returns the frame carrying it.
func (b *Buffer) Frame(m Message) ([]byte, error) {
	if err := b.Store(m.Text); err != nil {
		return nil, err
	}

	frame := make([]byte, headerSize, headerSize+b.n)
	frame[0] = byte(FrameMessage)
	binary.LittleEndian.PutUint32(frame[1:], uint32(m.Code))
	binary.LittleEndian.PutUint32(frame[5:], uint32(m.WParam))
	binary.LittleEndian.PutUint32(frame[9:], uint32(m.LParam))
	return append(frame, b.data[:b.n]...), nil
}

func AckFrame() []byte {
	return []byte{byte(FrameAck)}
}

// ParseFrame decodes a frame. Acks carry no message.
func ParseFrame(frame []byte) (FrameType, Message, error) {
	if len(frame) == 0 {
		return 0, Message{}, fmt.Errorf("%w: empty", ErrBadFrame)
	}

	switch FrameType(frame[0]) {
	case FrameAck:
		if len(frame) != 1 {
			return 0, Message{}, fmt.Errorf("%w: ack with %d trailing bytes", ErrBadFrame, len(frame)-1)
		}
		return FrameAck, Message{}, nil

	case FrameMessage:
		if len(frame) < headerSize+1 {
			return 0, Message{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(frame))
		}
		text := frame[headerSize:]
		end := bytes.IndexByte(text, 0)
		if end < 0 {
			return 0, Message{}, fmt.Errorf("%w: text not terminated", ErrBadFrame)
		}
		return FrameMessage, Message{
			Code:   Code(binary.LittleEndian.Uint32(frame[1:])),
			WParam: int32(binary.LittleEndian.Uint32(frame[5:])),
			LParam: int32(binary.LittleEndian.Uint32(frame[9:])),
			Text:   string(text[:end]),
		}, nil

	default:
		return 0, Message{}, fmt.Errorf("%w: type %d", ErrBadFrame, frame[0])
	}
}
