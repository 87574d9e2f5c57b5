package transport

import (
	"context"
	"errors"
	"slices"
	"sync"
)

var (
	ErrClosed = errors.New("link closed")
	ErrBusy   = errors.New("a client is already attached")
)

// Link moves whole frames between the two sides
type Link interface {
	WriteFrame(ctx context.Context, frame []byte) error
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

type pipeEnd struct {
	in     <-chan []byte
	out    chan<- []byte
	closed chan struct{}
	once   *sync.Once
}

// Pipe returns the two ends of an in-process link. Closing either end closes both.
func Pipe() (Link, Link) {
	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)
	closed := make(chan struct{})
	once := &sync.Once{}

	return &pipeEnd{in: ba, out: ab, closed: closed, once: once},
		&pipeEnd{in: ab, out: ba, closed: closed, once: once}
}

func (p *pipeEnd) WriteFrame(ctx context.Context, frame []byte) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.out <- slices.Clone(frame):
		return nil
	case <-p.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-p.in:
		return frame, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() {
		close(p.closed)
	})
	return nil
}
