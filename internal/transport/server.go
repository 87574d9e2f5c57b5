package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cheggaaa/mb/v3"
	"github.com/google/uuid"
	"github.com/mabhi256/livetree/internal/logger"
	"github.com/mabhi256/livetree/internal/protocol"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var log = logger.NewNamed("transport")

// DefaultQueueLimit bounds the events kept while no client is ready
const DefaultQueueLimit = 4096

type ServerOption func(s *Server)

func WithBufferSize(size int) ServerOption {
	return func(s *Server) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

func WithQueueLimit(limit int) ServerOption {
	return func(s *Server) {
		s.queueLimit = limit
	}
}

// Server is the debuggee side. It holds events back until a client said hello,
// then forwards them in order. One client may be attached at a time.
type Server struct {
	version    string
	bufferSize int
	queueLimit int

	queue      *mb.MB[protocol.Message]
	attached   atomic.Bool
	current    atomic.Pointer[Endpoint]
	handshakes atomic.Uint64
	commands   chan *Request

	mu        sync.Mutex
	ep        *Endpoint
	sessionID string
	ready     bool

	ctx     context.Context
	cancel  context.CancelFunc
	metrics *metrics
}

func NewServer(version string, opts ...ServerOption) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		version:    version,
		bufferSize: protocol.DefaultBufferSize,
		queueLimit: DefaultQueueLimit,
		commands:   make(chan *Request),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = mb.New[protocol.Message](s.queueLimit)
	return s
}

func newSessionID() string {
	return uuid.NewString()
}

// Attach makes link the client connection and returns its session id
func (s *Server) Attach(link Link) (string, error) {
	if !s.attached.CompareAndSwap(false, true) {
		s.metrics.refused()
		return "", ErrBusy
	}
	sessionID := newSessionID()
	s.attach(link, sessionID)
	return sessionID, nil
}

// attach expects the attached flag to be set already
func (s *Server) attach(link Link, sessionID string) {
	ep := NewEndpoint(link, s.bufferSize, false)

	s.mu.Lock()
	s.ep = ep
	s.sessionID = sessionID
	s.ready = false
	s.mu.Unlock()
	s.current.Store(ep)

	s.metrics.setAttached(true)
	log.Info("client attached", zap.String("session", sessionID))
	go s.pump(ep, sessionID)
}

// Commands yields client commands other than hello. Each must be acknowledged with Done
// after its replies were sent.
func (s *Server) Commands() <-chan *Request {
	return s.commands
}

func (s *Server) pump(ep *Endpoint, sessionID string) {
	defer s.detach(ep, sessionID)

	for req := range ep.Incoming() {
		if req.Code == protocol.CmdHello {
			s.hello(ep, req)
			continue
		}

		select {
		case s.commands <- req:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Server) hello(ep *Endpoint, req *Request) {
	s.mu.Lock()
	err := s.flush(ep)
	s.mu.Unlock()

	if err != nil {
		log.Warn("hello failed", zap.Error(err))
		_ = ep.Close()
		return
	}
	s.handshakes.Inc()
	if err := req.Done(); err != nil {
		log.Warn("hello ack failed", zap.Error(err))
	}
}

// flush sends HELLO_OK and then everything queued so far
func (s *Server) flush(ep *Endpoint) error {
	if err := s.sendLocked(s.ctx, ep, protocol.Event(protocol.EvHelloOK, 0, 0, s.version)); err != nil {
		return err
	}

	for s.queue.Len() > 0 {
		m, err := s.queue.WaitOne(s.ctx)
		if err != nil {
			return err
		}
		if err := s.sendLocked(s.ctx, ep, m); err != nil {
			return err
		}
	}

	s.ready = true
	log.Debug("handshake done", zap.String("session", s.sessionID))
	return nil
}

func (s *Server) detach(ep *Endpoint, sessionID string) {
	s.mu.Lock()
	if s.ep == ep {
		s.ep = nil
		s.ready = false
	}
	s.mu.Unlock()
	s.current.CompareAndSwap(ep, nil)

	_ = ep.Close()
	s.attached.Store(false)
	s.metrics.setAttached(false)
	log.Info("client detached", zap.String("session", sessionID), zap.NamedError("reason", ep.Err()))
}

// Send forwards an event to the client, or queues it until the client said hello.
// An event whose text does not fit the buffer is dropped and reported.
func (s *Server) Send(ctx context.Context, m protocol.Message) error {
	if len(m.Text) >= s.bufferSize {
		s.metrics.dropped("too_large")
		log.Warn("event dropped",
			zap.Stringer("code", m.Code),
			zap.Int("size", len(m.Text)),
			zap.Int("capacity", s.bufferSize))
		return fmt.Errorf("%s: %w", m.Code, protocol.ErrTooLarge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ep == nil || !s.ready {
		if err := s.queue.TryAdd(m); err != nil {
			s.metrics.dropped("queue_full")
			log.Warn("event dropped", zap.Stringer("code", m.Code), zap.Error(err))
			return fmt.Errorf("queue %s: %w", m.Code, err)
		}
		return nil
	}

	return s.sendLocked(ctx, s.ep, m)
}

func (s *Server) sendLocked(ctx context.Context, ep *Endpoint, m protocol.Message) error {
	if err := ep.Send(ctx, m); err != nil {
		if errors.Is(err, protocol.ErrTooLarge) {
			s.metrics.dropped("too_large")
		}
		return fmt.Errorf("send %s: %w", m.Code, err)
	}
	s.metrics.sent(m.Code)
	return nil
}

// Ready reports whether a client is attached and said hello
func (s *Server) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ep != nil && s.ready
}

// Handshakes counts completed hellos. A command received after a hello sees the
// count including it.
func (s *Server) Handshakes() uint64 {
	return s.handshakes.Load()
}

func (s *Server) Attached() bool {
	return s.attached.Load()
}

// Queued returns the number of events waiting for a hello
func (s *Server) Queued() int {
	return s.queue.Len()
}

// Detach drops the current client, if any
func (s *Server) Detach() {
	if ep := s.current.Load(); ep != nil {
		_ = ep.Close()
	}
}

func (s *Server) Close() error {
	s.Detach()
	s.cancel()
	return s.queue.Close()
}
