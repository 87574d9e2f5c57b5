package debuggee

// Introspector reads the live state of the debuggee.
//
// Ids and indexes handed to it may be stale: every method validates them and
// reports absence instead of failing. Generation changes whenever any state
// observable through the interface changes, so callers can memoize derived data.
type Introspector interface {
	Generation() uint64

	StaticVarCount() int
	StaticVarName(id int) (string, bool)
	StaticVar(id int) (*Var, bool)

	SystemVar(kind SystemVarKind) Value

	// CallFrameIDs lists live frames, oldest first
	CallFrameIDs() []int
	CallFrame(id int) (*Frame, bool)

	Location() Location
	Log() string
	General() []Entry
}

// Controller changes how the debuggee runs.
type Controller interface {
	SetMode(mode RunMode)
	Mode() RunMode
	Terminate()
}

// Notifier hands out notices accumulated since the last call.
type Notifier interface {
	Drain() []Notice
}
