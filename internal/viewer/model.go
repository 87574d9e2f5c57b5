package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mabhi256/livetree/internal/config"
	"github.com/mabhi256/livetree/internal/logger"
	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/mabhi256/livetree/internal/transport"
	"go.uber.org/zap"
)

var log = logger.NewNamed("viewer")

const (
	logLimit     = 64 << 10
	sparkHeight  = 1
	sparkHistory = 120
)

// Client is the part of the transport client the viewer drives
type Client interface {
	Send(ctx context.Context, m protocol.Message) error
	Next(ctx context.Context) (protocol.Message, error)
	SessionID() string
}

var _ Client = (*transport.Client)(nil)

type Model struct {
	ctx    context.Context
	config *config.Config
	client Client
	help   help.Model

	// UI state
	width  int
	height int

	list       ObjectList
	cursor     int
	listOffset int

	activePane      PaneType
	scrollPositions map[PaneType]int

	details   string
	detailsID int

	sources  map[int32]*sourceFile
	fileID   int32
	line     int32
	logs     logTail
	state    RunState
	version  string
	lastEdit int

	spark   sparkline.Model
	history []float64

	// Error state
	errorMessage string
	showError    bool

	startTime  time.Time
	lastUpdate time.Time
}

func initialModel(ctx context.Context, cfg *config.Config, client Client) *Model {
	return &Model{
		ctx:             ctx,
		config:          cfg,
		client:          client,
		help:            help.New(),
		activePane:      PaneSource,
		scrollPositions: make(map[PaneType]int),
		sources:         make(map[int32]*sourceFile),
		logs:            logTail{limit: logLimit},
		state:           StateConnecting,
		spark:           sparkline.New(8, sparkHeight),
		startTime:       time.Now(),
	}
}

func (m *Model) setError(message string) {
	m.errorMessage = message
	m.showError = true
}

func (m *Model) clearError() {
	m.errorMessage = ""
	m.showError = false
}

// Message types
type TickMsg time.Time

type eventMsg protocol.Message

type sendErrMsg struct {
	code protocol.Code
	err  error
}

type disconnectedMsg struct {
	err error
}

func (m *Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.config.GetInterval(), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// send issues a command without blocking the update loop
func (m *Model) send(code protocol.Code, wparam int32) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Send(m.ctx, protocol.Command(code, wparam)); err != nil {
			return sendErrMsg{code: code, err: err}
		}
		return nil
	}
}

// waitEvent delivers the next server event. It is reissued after every event.
func (m *Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, err := m.client.Next(m.ctx)
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return eventMsg(ev)
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitEvent(),
		tea.Sequence(
			m.send(protocol.CmdLocationUpdate, 0),
			m.send(protocol.CmdListUpdate, 0),
		),
		m.scheduleTick(),
	)
}

// Start runs the viewer until the user quits. The client must already be past the handshake.
func Start(ctx context.Context, cfg *config.Config, client Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := initialModel(ctx, cfg, client)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	log.Info("viewer started", zap.String("session", client.SessionID()), zap.Stringer("config", cfg))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
