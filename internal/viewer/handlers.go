package viewer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/mabhi256/livetree/internal/transport"
	"github.com/mabhi256/livetree/utils"
	"go.uber.org/zap"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case TickMsg:
		if m.state == StateTerminated {
			return m, nil
		}
		return m, tea.Batch(m.send(protocol.CmdListUpdate, 0), m.scheduleTick())

	case eventMsg:
		cmd := m.handleEvent(protocol.Message(msg))
		return m, tea.Batch(cmd, m.waitEvent())

	case sendErrMsg:
		log.Warn("command failed", zap.Stringer("code", msg.code), zap.Error(msg.err))
		m.setError(fmt.Sprintf("%s failed: %v", msg.code, msg.err))
		return m, nil

	case disconnectedMsg:
		if m.state != StateTerminated {
			m.state = StateTerminated
			if !errors.Is(msg.err, transport.ErrClosed) {
				m.setError(fmt.Sprintf("Connection lost: %v", msg.err))
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	m.resizeSpark()
	m.clampCursor()
	return m, nil
}

// resizeSpark redraws the sparkline from the kept history at the new width
func (m *Model) resizeSpark() {
	width := max(min(m.width/4, sparkHistory), 8)
	m.spark = sparkline.New(width, sparkHeight)
	for _, v := range m.history {
		m.spark.Push(v)
	}
	m.spark.Draw()
}

// handleEvent folds one server event into the model and returns any follow-up command
func (m *Model) handleEvent(ev protocol.Message) tea.Cmd {
	log.Debug("event", zap.Stringer("code", ev.Code), zap.Int32("wparam", ev.WParam), zap.Int("size", len(ev.Text)))

	switch ev.Code {
	case protocol.EvHelloOK:
		m.version = ev.Text
		if m.state == StateConnecting {
			m.state = StateRunning
		}

	case protocol.EvShutdown:
		m.state = StateTerminated
		m.logs.Append("[debuggee terminated]\n")

	case protocol.EvLogMessage:
		m.logs.Append(ev.Text)
		m.scrollPositions[PaneLog] = math.MaxInt32

	case protocol.EvStopped:
		m.state = StateStopped
		return tea.Batch(m.moveTo(ev.WParam, ev.LParam), m.send(protocol.CmdListUpdate, 0))

	case protocol.EvLocation:
		if m.state == StateConnecting {
			m.state = StateRunning
		}
		return m.moveTo(ev.WParam, ev.LParam)

	case protocol.EvSourcePath:
		m.source(ev.WParam).path = ev.Text

	case protocol.EvSourceCode:
		m.source(ev.WParam).setText(ev.Text)

	case protocol.EvListUpdateOK:
		n, err := m.list.Apply(ev.Text)
		if err != nil {
			log.Error("list update rejected, asking for the whole list", zap.Error(err))
			m.setError(fmt.Sprintf("List out of sync, reloading: %v", err))
			m.list.Reset()
			m.clampCursor()
			return m.send(protocol.CmdListReset, 0)
		}
		m.lastEdit = n
		m.lastUpdate = time.Now()
		m.pushHistory(float64(n))
		m.clampCursor()

	case protocol.EvListDetailsOK:
		m.detailsID = int(ev.WParam)
		m.details = ev.Text
		if ev.WParam == 0 {
			m.details = "(object no longer exists)"
		}
		m.scrollPositions[PaneDetails] = 0

	default:
		log.Warn("unexpected event", zap.Stringer("code", ev.Code))
	}
	return nil
}

// moveTo records the current location and fetches the file's source once
func (m *Model) moveTo(fileID, line int32) tea.Cmd {
	m.fileID, m.line = fileID, line
	m.centerOn(PaneSource, int(line), m.paneHeight())
	if fileID <= 0 {
		return nil
	}
	f := m.source(fileID)
	if f.requested {
		return nil
	}
	f.requested = true
	return m.send(protocol.CmdSource, fileID)
}

func (m *Model) source(fileID int32) *sourceFile {
	f, ok := m.sources[fileID]
	if !ok {
		f = &sourceFile{}
		m.sources[fileID] = f
	}
	return f
}

func (m *Model) pushHistory(v float64) {
	m.history = append(m.history, v)
	if len(m.history) > sparkHistory {
		m.history = m.history[len(m.history)-sparkHistory:]
	}
	m.spark.Push(v)
	m.spark.Draw()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	if m.showError {
		m.clearError()
	}

	switch {
	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, keys.PageUp):
		m.moveCursor(-m.listHeight())

	case key.Matches(msg, keys.PageDown):
		m.moveCursor(m.listHeight())

	case key.Matches(msg, keys.Tab):
		m.activePane = m.cyclePane(1)

	case key.Matches(msg, keys.ShiftTab):
		m.activePane = m.cyclePane(-1)

	case key.Matches(msg, keys.PaneUp):
		m.scrollUp(m.listHeight() / 2)

	case key.Matches(msg, keys.PaneDown):
		m.scrollDown(m.listHeight() / 2)

	case key.Matches(msg, keys.Toggle):
		if row, ok := m.list.Row(m.cursor); ok && row.ChildCount > 0 {
			return m, m.send(protocol.CmdListToggleExpand, int32(row.ObjectID))
		}

	case key.Matches(msg, keys.Details):
		if row, ok := m.list.Row(m.cursor); ok {
			m.activePane = PaneDetails
			return m, m.send(protocol.CmdListDetails, int32(row.ObjectID))
		}

	case key.Matches(msg, keys.Refresh):
		cmds := []tea.Cmd{m.send(protocol.CmdLocationUpdate, 0), m.send(protocol.CmdListUpdate, 0)}
		if m.detailsID > 0 {
			cmds = append(cmds, m.send(protocol.CmdListDetails, int32(m.detailsID)))
		}
		return m, tea.Sequence(cmds...)
	}

	if m.state == StateTerminated {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Continue):
		m.state = StateRunning
		return m, m.send(protocol.CmdStepContinue, 0)

	case key.Matches(msg, keys.Pause):
		return m, m.send(protocol.CmdStepPause, 0)

	case key.Matches(msg, keys.StepIn):
		return m, m.send(protocol.CmdStepIn, 0)

	case key.Matches(msg, keys.StepOver):
		return m, m.send(protocol.CmdStepOver, 0)

	case key.Matches(msg, keys.StepOut):
		return m, m.send(protocol.CmdStepOut, 0)

	case key.Matches(msg, keys.Terminate):
		return m, m.send(protocol.CmdTerminate, 0)
	}

	return m, nil
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

// clampCursor keeps the cursor on a row and the row on screen
func (m *Model) clampCursor() {
	m.cursor = max(min(m.cursor, m.list.Len()-1), 0)

	height := m.listHeight()
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if height > 0 && m.cursor >= m.listOffset+height {
		m.listOffset = m.cursor - height + 1
	}
	m.listOffset = max(min(m.listOffset, m.list.Len()-height), 0)
}

func (m *Model) cyclePane(step int) PaneType {
	return utils.CycleEnum(m.activePane, step, PaneLog)
}
