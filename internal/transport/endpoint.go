package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/mabhi256/livetree/internal/protocol"
	"go.uber.org/zap"
)

// Request is a received message. The sender stays blocked until Done acknowledges it.
type Request struct {
	protocol.Message

	ep   *Endpoint
	once sync.Once
	err  error
}

// Done acknowledges the message. Calls after the first are no-ops.
func (r *Request) Done() error {
	r.once.Do(func() {
		r.err = r.ep.link.WriteFrame(context.Background(), protocol.AckFrame())
	})
	return r.err
}

// Endpoint is one side of a link. It owns the buffer for its sending direction and
// lets one message be in flight at a time: Send returns once the peer acknowledged.
type Endpoint struct {
	link    Link
	buf     *protocol.Buffer
	autoAck bool

	incoming chan *Request
	acks     chan struct{}
	sendMu   sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
	err       error
}

// NewEndpoint starts reading from link. With autoAck, received messages are
// acknowledged as soon as they are queued for Incoming.
func NewEndpoint(link Link, bufferSize int, autoAck bool) *Endpoint {
	e := &Endpoint{
		link:     link,
		buf:      protocol.NewBuffer(bufferSize),
		autoAck:  autoAck,
		incoming: make(chan *Request, 16),
		acks:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
	go e.readLoop()
	return e
}

// Send writes m and waits for the acknowledgement. Text that does not fit the
// buffer fails with protocol.ErrTooLarge and nothing is sent.
func (e *Endpoint) Send(ctx context.Context, m protocol.Message) error {
	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	select {
	case <-e.closed:
		return e.Err()
	default:
	}

	frame, err := e.buf.Frame(m)
	if err != nil {
		return err
	}
	if err := e.link.WriteFrame(ctx, frame); err != nil {
		e.closeWith(err)
		return err
	}

	select {
	case <-e.acks:
		return nil
	case <-e.closed:
		return e.Err()
	case <-ctx.Done():
		// a late ack would pair with the next message
		e.closeWith(ctx.Err())
		return ctx.Err()
	}
}

// Incoming yields received messages. It is closed when the endpoint closes.
func (e *Endpoint) Incoming() <-chan *Request {
	return e.incoming
}

func (e *Endpoint) Closed() <-chan struct{} {
	return e.closed
}

// Err returns why the endpoint closed, or nil while it is open
func (e *Endpoint) Err() error {
	select {
	case <-e.closed:
		return e.err
	default:
		return nil
	}
}

func (e *Endpoint) Close() error {
	e.closeWith(ErrClosed)
	return nil
}

func (e *Endpoint) closeWith(err error) {
	e.closeOnce.Do(func() {
		if !errors.Is(err, ErrClosed) {
			log.Debug("endpoint closed", zap.Error(err))
		}
		e.err = err
		close(e.closed)
		_ = e.link.Close()
	})
}

func (e *Endpoint) readLoop() {
	defer close(e.incoming)

	for {
		frame, err := e.link.ReadFrame(context.Background())
		if err != nil {
			e.closeWith(err)
			return
		}

		typ, m, err := protocol.ParseFrame(frame)
		if err != nil {
			log.Warn("dropping link after bad frame", zap.Error(err))
			e.closeWith(err)
			return
		}

		if typ == protocol.FrameAck {
			select {
			case e.acks <- struct{}{}:
			default:
				log.Warn("unexpected ack")
			}
			continue
		}

		req := &Request{Message: m, ep: e}
		select {
		case e.incoming <- req:
		case <-e.closed:
			return
		}
		if e.autoAck {
			if err := req.Done(); err != nil {
				e.closeWith(err)
				return
			}
		}
	}
}
