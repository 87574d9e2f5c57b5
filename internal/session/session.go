package session

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mabhi256/livetree/internal/accessor"
	"github.com/mabhi256/livetree/internal/config"
	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/diff"
	"github.com/mabhi256/livetree/internal/logger"
	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/mabhi256/livetree/internal/registry"
	"github.com/mabhi256/livetree/internal/render"
	"github.com/mabhi256/livetree/internal/source"
	"github.com/mabhi256/livetree/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var log = logger.NewNamed("session")

// Debuggee is what a session inspects and drains notices from
type Debuggee interface {
	debuggee.Introspector
	debuggee.Notifier
}

// Runner advances a debuggee that has no loop of its own
type Runner interface {
	Tick()
}

type Option func(s *Session)

// WithController routes run mode changes somewhere other than the debuggee itself
func WithController(ctl debuggee.Controller) Option {
	return func(s *Session) {
		s.ctl = ctl
	}
}

// WithRunner ticks r every interval and right after step commands
func WithRunner(r Runner) Option {
	return func(s *Session) {
		s.runner = r
	}
}

func WithPrometheus(reg *prometheus.Registry, namespace string) Option {
	return func(s *Session) {
		s.promReg = reg
		s.namespace = namespace
	}
}

// Session ties one debuggee to the server. Everything it owns is used from the
// goroutine running Run only.
type Session struct {
	cfg     *config.Config
	api     Debuggee
	ctl     debuggee.Controller
	runner  Runner
	acc     *accessor.Accessor
	reg     *registry.Registry
	sources *source.Resolver
	srv     *transport.Server

	promReg   *prometheus.Registry
	namespace string
	metrics   *metrics

	actions    chan func()
	handshakes uint64
	terminated bool
}

// New builds a session. Without WithController the debuggee must implement debuggee.Controller.
func New(cfg *config.Config, api Debuggee, srv *transport.Server, sources *source.Resolver, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:     cfg,
		api:     api,
		sources: sources,
		srv:     srv,
		actions: make(chan func()),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ctl == nil {
		ctl, ok := api.(debuggee.Controller)
		if !ok {
			return nil, fmt.Errorf("debuggee %T cannot be controlled", api)
		}
		s.ctl = ctl
	}

	s.acc = accessor.New(api, accessor.WithScripts(sources))
	regOpts := []registry.Option{registry.WithChildLimit(cfg.MaxChildCount)}
	if s.promReg != nil {
		regOpts = append(regOpts, registry.WithPrometheus(s.promReg, s.namespace, ""))
		s.metrics = newMetrics(s.promReg, s.namespace)
	}
	s.reg = registry.New(s.acc, regOpts...)
	return s, nil
}

// Run serves commands and ticks until ctx is done or the debuggee terminated
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.GetInterval())
	defer ticker.Stop()

	log.Info("session started", zap.Stringer("config", s.cfg))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-s.srv.Commands():
			start := time.Now()
			s.checkHandshake()
			s.Handle(ctx, req.Message)
			s.flushNotices(ctx)
			s.metrics.observe(req.Code, time.Since(start))
			if err := req.Done(); err != nil {
				log.Warn("ack failed", zap.Stringer("code", req.Code), zap.Error(err))
			}

		case fn := <-s.actions:
			fn()
			s.flushNotices(ctx)

		case <-ticker.C:
			if s.runner != nil {
				s.runner.Tick()
			}
			s.flushNotices(ctx)
		}

		if s.terminated {
			log.Info("debuggee terminated")
			return nil
		}
	}
}

// Handle runs one client command. Replies go out through the server.
func (s *Session) Handle(ctx context.Context, m protocol.Message) {
	log.Debug("command", zap.Stringer("code", m.Code), zap.Int32("wparam", m.WParam))

	switch m.Code {
	case protocol.CmdTerminate:
		s.ctl.Terminate()

	case protocol.CmdStepContinue:
		s.ctl.SetMode(debuggee.ModeRun)

	case protocol.CmdStepPause:
		s.ctl.SetMode(debuggee.ModeStop)

	case protocol.CmdStepIn:
		s.step(debuggee.ModeStepIn)

	case protocol.CmdStepOver:
		s.step(debuggee.ModeStepOver)

	case protocol.CmdStepOut:
		s.step(debuggee.ModeStepOut)

	case protocol.CmdLocationUpdate:
		s.sendLocation(ctx, protocol.EvLocation, s.api.Location())

	case protocol.CmdSource:
		s.sendSource(ctx, int(m.WParam))

	case protocol.CmdListUpdate:
		s.sendListUpdate(ctx)

	case protocol.CmdListToggleExpand:
		if m.WParam <= 0 {
			log.Debug("toggle ignored", zap.Int32("objectId", m.WParam))
			return
		}
		s.reg.ToggleExpand(int(m.WParam))
		s.sendListUpdate(ctx)

	case protocol.CmdListDetails:
		s.sendDetails(ctx, int(m.WParam))

	case protocol.CmdListReset:
		s.reg.Reset()
		s.sendListUpdate(ctx)

	default:
		log.Warn("unknown command", zap.Stringer("code", m.Code))
	}
}

// Post runs fn on the session goroutine, between commands. It returns once fn ran.
func (s *Session) Post(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case s.actions <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkHandshake resets the client's list after a new hello, since a new client
// starts with no rows
func (s *Session) checkHandshake() {
	n := s.srv.Handshakes()
	if n == s.handshakes {
		return
	}
	if s.handshakes > 0 {
		log.Info("client said hello again, resending the list")
	}
	s.handshakes = n
	s.reg.Reset()
}

func (s *Session) step(mode debuggee.RunMode) {
	s.ctl.SetMode(mode)
	if s.runner != nil {
		s.runner.Tick()
	}
}

func (s *Session) send(ctx context.Context, m protocol.Message) {
	if err := s.srv.Send(ctx, m); err != nil {
		log.Warn("send failed", zap.Stringer("code", m.Code), zap.Error(err))
	}
}

func (s *Session) sendLocation(ctx context.Context, code protocol.Code, loc debuggee.Location) {
	fileID := s.sources.FileID(loc.File)
	s.send(ctx, protocol.Event(code, int32(fileID), int32(loc.Line), ""))
}

func (s *Session) sendSource(ctx context.Context, fileID int) {
	if fullPath, ok := s.sources.Path(fileID); ok {
		s.send(ctx, protocol.Event(protocol.EvSourcePath, int32(fileID), 0, fullPath))
	}
	if content, ok := s.sources.Content(fileID); ok {
		s.send(ctx, protocol.Event(protocol.EvSourceCode, int32(fileID), 0, content))
	}
}

// sendListUpdate sends the edits since the last update that reached the client
func (s *Session) sendListUpdate(ctx context.Context) {
	text := diff.Encode(s.reg.Update())
	if err := s.srv.Send(ctx, protocol.Event(protocol.EvListUpdateOK, 0, 0, text)); err != nil {
		log.Warn("list update not delivered", zap.Int("size", len(text)), zap.Error(err))
		s.reg.Undo()
	}
}

func (s *Session) sendDetails(ctx context.Context, objectID int) {
	p, ok := s.reg.PathOf(objectID)
	if !ok {
		s.send(ctx, protocol.Event(protocol.EvListDetailsOK, 0, 0, ""))
		return
	}

	text := render.Table(s.acc, p, render.Options{
		ChildLimit: s.cfg.DetailChildCount,
		TextLimit:  s.cfg.TextLimit(),
	})
	s.send(ctx, protocol.Event(protocol.EvListDetailsOK, int32(objectID), 0, text))
}

// flushNotices turns what the debuggee reported since the last call into events
func (s *Session) flushNotices(ctx context.Context) {
	for _, n := range s.api.Drain() {
		switch n.Kind {
		case debuggee.NoticeLog:
			s.send(ctx, protocol.Event(protocol.EvLogMessage, 0, 0, n.Text))

		case debuggee.NoticeStopped:
			s.sendLocation(ctx, protocol.EvStopped, n.Location)

		case debuggee.NoticeTerminated:
			s.saveLog()
			s.send(ctx, protocol.Event(protocol.EvShutdown, 0, 0, ""))
			s.terminated = true
		}
	}
}

func (s *Session) saveLog() {
	if s.cfg.LogPath == "" {
		return
	}
	if err := os.WriteFile(s.cfg.LogPath, []byte(s.api.Log()), 0644); err != nil {
		log.Warn("failed to save log", zap.String("path", s.cfg.LogPath), zap.Error(err))
		return
	}
	log.Info("log saved", zap.String("path", s.cfg.LogPath))
}

// Registry exposes the identity registry, mainly for inspection in tests
func (s *Session) Registry() *registry.Registry {
	return s.reg
}
