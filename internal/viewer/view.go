package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/livetree/internal/snapshot"
	"github.com/mabhi256/livetree/utils"
)

const (
	// header, status bar and help line
	chromeHeight = 3
	// pane border and pane title
	paneChrome = 3
)

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(utils.BorderColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(utils.InfoColor)

	currentLineStyle = utils.WarningStyle
)

func (m *Model) listHeight() int {
	return max(m.height-chromeHeight-paneChrome, 1)
}

func (m *Model) paneHeight() int {
	return m.listHeight()
}

func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	if m.showError {
		errorBox := utils.ErrorStyle.Render(m.errorMessage)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, errorBox)
	}

	header := m.renderHeader()
	helpView := utils.MutedStyle.Render(m.help.View(keys))
	status := m.renderStatusBar()

	leftWidth := m.width * 55 / 100
	rightWidth := m.width - leftWidth
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderListPane(leftWidth),
		m.renderSidePane(rightWidth),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, status, helpView)
}

func (m *Model) renderHeader() string {
	title := "livetree"
	if m.version != "" {
		title = fmt.Sprintf("livetree %s", m.version)
	}

	var stateStyle lipgloss.Style
	switch m.state {
	case StateRunning:
		stateStyle = utils.GoodStyle
	case StateStopped:
		stateStyle = utils.WarningStyle
	default:
		stateStyle = utils.CriticalStyle
	}

	where := utils.MutedStyle.Render("no location")
	if m.fileID > 0 {
		where = fmt.Sprintf("%s:%d", m.fileName(m.fileID), m.line+1)
	}

	row := strings.Join([]string{
		utils.TitleStyle.Render(title),
		stateStyle.Render(m.state.String()),
		where,
		utils.MutedStyle.Render("up " + utils.FormatDuration(time.Since(m.startTime).Truncate(time.Second))),
		utils.MutedStyle.Render(m.client.SessionID()),
	}, "  ")
	return utils.HeaderStyle.Width(m.width).Render(row)
}

func (m *Model) renderListPane(width int) string {
	inner := max(width-2, 1)
	height := m.listHeight()

	title := utils.TabActiveStyle.Render(fmt.Sprintf("Objects (%d)", m.list.Len()))
	lines := []string{title}

	end := min(m.listOffset+height, m.list.Len())
	for i := m.listOffset; i < end; i++ {
		row, _ := m.list.Row(i)
		text := utils.TruncateString(m.formatRow(i, row), inner)
		if i == m.cursor {
			text = selectedStyle.Width(inner).Render(text)
		}
		lines = append(lines, text)
	}
	if m.list.Len() == 0 {
		lines = append(lines, utils.MutedStyle.Render("waiting for the first update"))
	}

	return paneStyle.Width(inner).Height(height + 1).Render(strings.Join(lines, "\n"))
}

// formatRow renders one row with its tree indentation and expansion marker
func (m *Model) formatRow(i int, row snapshot.Row) string {
	marker := "  "
	if row.ChildCount > 0 {
		marker = "▸ "
		if next, ok := m.list.Row(i + 1); ok && next.Depth > row.Depth {
			marker = "▾ "
		}
	}

	text := strings.Repeat("  ", row.Depth) + marker + utils.SanitizeString(row.Name)
	switch {
	case row.ChildCount > 0:
		text += fmt.Sprintf(" (%d)", row.ChildCount)
	case row.Value != "":
		text += " = " + utils.SanitizeString(row.Value)
	}
	return text
}

func (m *Model) renderSidePane(width int) string {
	inner := max(width-2, 1)
	height := m.paneHeight()

	var tabs []string
	for _, pane := range GetAllPanes() {
		if pane == m.activePane {
			tabs = append(tabs, utils.TabActiveStyle.Render(pane.String()))
		} else {
			tabs = append(tabs, utils.TabInactiveStyle.Render(pane.String()))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var content string
	switch m.activePane {
	case PaneDetails:
		content = m.renderDetails()
	case PaneSource:
		content = m.renderSource(inner)
	case PaneLog:
		content = m.renderLog()
	}
	content = m.applyScrolling(content, height)

	clip := lipgloss.NewStyle().MaxWidth(inner)
	var clipped []string
	for _, line := range strings.Split(content, "\n") {
		clipped = append(clipped, clip.Render(strings.ReplaceAll(line, "\t", "    ")))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, tabBar, strings.Join(clipped, "\n"))
	return paneStyle.Width(inner).Height(height + 1).Render(body)
}

func (m *Model) renderDetails() string {
	if m.details == "" {
		return utils.MutedStyle.Render("select a row and press d")
	}
	return m.details
}

func (m *Model) renderSource(width int) string {
	f, ok := m.sources[m.fileID]
	if !ok || len(f.lines) == 0 {
		return utils.MutedStyle.Render("no source for the current location")
	}

	lines := make([]string, 0, len(f.lines)+1)
	if f.path != "" {
		lines = append(lines, utils.MutedStyle.Render(utils.TruncateString(f.path, width)))
	}
	for i, text := range f.lines {
		line := fmt.Sprintf("%4d  %s", i+1, text)
		if i == int(m.line) {
			line = currentLineStyle.Render("▶" + line[1:])
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLog() string {
	if m.logs.String() == "" {
		return utils.MutedStyle.Render("log is empty")
	}
	return strings.TrimSuffix(m.logs.String(), "\n")
}

func (m *Model) renderStatusBar() string {
	text := fmt.Sprintf("rows %d • updates %d • last %d edits • log %s ",
		m.list.Len(), m.list.Updates(), m.lastEdit, utils.ByteSize(len(m.logs.String())))
	if !m.lastUpdate.IsZero() {
		text += "• " + m.lastUpdate.Format("15:04:05") + " "
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		utils.StatusBarStyle.Render(text),
		m.spark.View(),
	)
}

func (m *Model) fileName(fileID int32) string {
	if f, ok := m.sources[fileID]; ok && f.path != "" {
		return f.path
	}
	return fmt.Sprintf("#%d", fileID)
}
