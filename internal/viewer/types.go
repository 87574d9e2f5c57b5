package viewer

import "strings"

type PaneType int

const (
	PaneDetails PaneType = iota
	PaneSource
	PaneLog
)

func (p PaneType) String() string {
	switch p {
	case PaneDetails:
		return "Details"
	case PaneSource:
		return "Source"
	case PaneLog:
		return "Log"
	default:
		return "Unknown"
	}
}

func GetAllPanes() []PaneType {
	return []PaneType{PaneDetails, PaneSource, PaneLog}
}

// RunState is the debuggee state as far as the viewer knows
type RunState int

const (
	StateConnecting RunState = iota
	StateRunning
	StateStopped
	StateTerminated
)

func (s RunState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type sourceFile struct {
	path      string
	lines     []string
	requested bool
}

func (f *sourceFile) setText(text string) {
	f.lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// logTail keeps the end of the debuggee log
type logTail struct {
	limit int
	text  string
}

func (l *logTail) Append(text string) {
	l.text += text
	over := len(l.text) - l.limit
	if l.limit <= 0 || over <= 0 {
		return
	}
	// drop whole lines only
	if cut := strings.IndexByte(l.text[over-1:], '\n'); cut >= 0 {
		l.text = l.text[over+cut:]
	} else {
		l.text = l.text[over:]
	}
}

func (l *logTail) String() string {
	return l.text
}
