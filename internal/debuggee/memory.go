package debuggee

import (
	"slices"
	"strings"
)

// Memory is an in-process debuggee whose state is set through its mutation methods.
// It is not safe for concurrent use; the owning session drives it from one goroutine.
type Memory struct {
	gen uint64

	vars    []*Var
	sysvars map[SystemVarKind]Value

	frames      []*Frame
	nextFrameID int

	location Location
	log      strings.Builder
	general  []Entry

	mode       RunMode
	terminated bool
	notices    []Notice
}

func NewMemory() *Memory {
	m := &Memory{
		sysvars:     make(map[SystemVarKind]Value),
		nextFrameID: 1,
		mode:        ModeRun,
	}
	for _, kind := range SystemVarKinds() {
		m.sysvars[kind] = Value{Type: kind.Type()}
	}
	return m
}

func (m *Memory) touch() {
	m.gen++
}

func (m *Memory) Generation() uint64 {
	return m.gen
}

// AddVar registers a static variable and returns its id.
func (m *Memory) AddVar(v *Var) int {
	m.vars = append(m.vars, v)
	m.touch()
	return len(m.vars) - 1
}

// SetVar replaces the contents of a static variable, keeping its name.
func (m *Memory) SetVar(id int, v *Var) bool {
	if id < 0 || id >= len(m.vars) {
		return false
	}
	v.Name = m.vars[id].Name
	m.vars[id] = v
	m.touch()
	return true
}

// SetElement overwrites one element of a static variable by flat offset.
func (m *Memory) SetElement(id, offset int, value Value) bool {
	if id < 0 || id >= len(m.vars) {
		return false
	}
	v := m.vars[id]
	if offset < 0 || offset >= len(v.Elems) {
		return false
	}
	v.Elems[offset] = value
	m.touch()
	return true
}

func (m *Memory) StaticVarCount() int {
	return len(m.vars)
}

func (m *Memory) StaticVarName(id int) (string, bool) {
	if id < 0 || id >= len(m.vars) {
		return "", false
	}
	return m.vars[id].Name, true
}

func (m *Memory) StaticVar(id int) (*Var, bool) {
	if id < 0 || id >= len(m.vars) {
		return nil, false
	}
	return m.vars[id], true
}

func (m *Memory) SetSystemVar(kind SystemVarKind, value Value) {
	m.sysvars[kind] = value
	m.touch()
}

func (m *Memory) SystemVar(kind SystemVarKind) Value {
	if v, ok := m.sysvars[kind]; ok {
		return v
	}
	return Value{Type: TypeUnknown}
}

// PushFrame enters a command call at the current location and returns the new frame id.
func (m *Memory) PushFrame(name string, params ...Param) int {
	frame := &Frame{
		ID:     m.nextFrameID,
		Name:   name,
		File:   m.location.File,
		Line:   m.location.Line,
		Params: params,
	}
	m.nextFrameID++
	m.frames = append(m.frames, frame)
	m.sysvars[SysSubLev] = IntValue(int32(len(m.frames)))
	m.touch()
	return frame.ID
}

// PopFrame leaves the innermost command call.
func (m *Memory) PopFrame() bool {
	if len(m.frames) == 0 {
		return false
	}
	m.frames = m.frames[:len(m.frames)-1]
	m.sysvars[SysSubLev] = IntValue(int32(len(m.frames)))
	m.touch()
	return true
}

// Depth returns the number of live call frames.
func (m *Memory) Depth() int {
	return len(m.frames)
}

func (m *Memory) CallFrameIDs() []int {
	ids := make([]int, len(m.frames))
	for i, f := range m.frames {
		ids[i] = f.ID
	}
	return ids
}

func (m *Memory) CallFrame(id int) (*Frame, bool) {
	i := slices.IndexFunc(m.frames, func(f *Frame) bool { return f.ID == id })
	if i < 0 {
		return nil, false
	}
	return m.frames[i], true
}

func (m *Memory) SetLocation(loc Location) {
	m.location = loc
	m.touch()
}

func (m *Memory) Location() Location {
	return m.location
}

// AppendLog adds text to the log; a missing trailing line break is added.
func (m *Memory) AppendLog(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	m.log.WriteString(text)
	m.notices = append(m.notices, Notice{Kind: NoticeLog, Text: text})
	m.touch()
}

func (m *Memory) ClearLog() {
	m.log.Reset()
	m.touch()
}

func (m *Memory) Log() string {
	return m.log.String()
}

// SetGeneral sets one general information entry, keeping insertion order.
func (m *Memory) SetGeneral(key, value string) {
	i := slices.IndexFunc(m.general, func(e Entry) bool { return e.Key == key })
	if i < 0 {
		m.general = append(m.general, Entry{Key: key, Value: value})
	} else {
		m.general[i].Value = value
	}
	m.touch()
}

func (m *Memory) General() []Entry {
	return slices.Clone(m.general)
}

func (m *Memory) SetMode(mode RunMode) {
	if m.terminated {
		return
	}
	m.mode = mode
}

func (m *Memory) Mode() RunMode {
	return m.mode
}

// Stop halts the debuggee at the current location and reports it.
func (m *Memory) Stop() {
	m.mode = ModeStop
	m.notices = append(m.notices, Notice{Kind: NoticeStopped, Location: m.location})
}

func (m *Memory) Terminate() {
	if m.terminated {
		return
	}
	m.terminated = true
	m.mode = ModeStop
	m.notices = append(m.notices, Notice{Kind: NoticeTerminated})
}

func (m *Memory) Terminated() bool {
	return m.terminated
}

func (m *Memory) Drain() []Notice {
	notices := m.notices
	m.notices = nil
	return notices
}
