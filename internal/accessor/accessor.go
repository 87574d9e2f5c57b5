package accessor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/path"
)

const (
	GlobalModuleID   = 0
	GlobalModuleName = "@"

	internLimit = 1 << 16
)

// ScriptSource supplies the text of a source file by the name the debuggee uses for it.
type ScriptSource interface {
	ContentByRef(ref string) (string, bool)
}

type module struct {
	name string
	vars []int
}

// Accessor resolves paths against the live debuggee. It never fails on a stale
// path: counts drop to zero and missing children become Unavailable paths.
type Accessor struct {
	api      debuggee.Introspector
	scripts  ScriptSource
	interner *path.Interner

	gen     uint64
	modules []module
}

type Option func(a *Accessor)

func WithScripts(scripts ScriptSource) Option {
	return func(a *Accessor) {
		a.scripts = scripts
	}
}

func New(api debuggee.Introspector, opts ...Option) *Accessor {
	a := &Accessor{
		api:      api,
		interner: path.NewInterner(internLimit),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.refresh(true)
	return a
}

func (a *Accessor) Root() *path.Path {
	return path.Root()
}

// refresh rebuilds memoized lookups when the debuggee generation moved.
func (a *Accessor) refresh(force bool) {
	gen := a.api.Generation()
	if !force && gen == a.gen {
		return
	}
	a.gen = gen

	names := make([]string, a.api.StaticVarCount())
	for id := range names {
		names[id], _ = a.api.StaticVarName(id)
	}
	a.modules = groupByModule(names)
}

// groupByModule groups variables by their "@scope" suffix. The global module comes first.
func groupByModule(names []string) []module {
	type tuple struct {
		module string
		name   string
		id     int
	}

	tuples := make([]tuple, len(names))
	for id, name := range names {
		mod := GlobalModuleName
		if i := strings.IndexByte(name, '@'); i >= 0 {
			mod = name[i:]
		}
		tuples[id] = tuple{module: mod, name: name, id: id}
	}

	sort.Slice(tuples, func(i, j int) bool {
		if tuples[i].module != tuples[j].module {
			return tuples[i].module < tuples[j].module
		}
		if tuples[i].name != tuples[j].name {
			return tuples[i].name < tuples[j].name
		}
		return tuples[i].id < tuples[j].id
	})

	modules := []module{{name: GlobalModuleName}}
	for _, t := range tuples {
		last := &modules[len(modules)-1]
		if last.name != t.module {
			modules = append(modules, module{name: t.module})
			last = &modules[len(modules)-1]
		}
		last.vars = append(last.vars, t.id)
	}
	return modules
}

func (a *Accessor) module(id int) (*module, bool) {
	if id < 0 || id >= len(a.modules) {
		return nil, false
	}
	return &a.modules[id], true
}

// ModuleCount returns the number of variable groups, including the global one.
func (a *Accessor) ModuleCount() int {
	a.refresh(false)
	return len(a.modules)
}

func (a *Accessor) rootChildren(root *path.Path) []*path.Path {
	return []*path.Path{
		root.Module(GlobalModuleID),
		root.CallStack(),
		root.SystemVarList(),
		root.Script(),
		root.Log(),
		root.General(),
	}
}

// ChildCount returns how many children the node currently has.
func (a *Accessor) ChildCount(p *path.Path) int {
	a.refresh(false)

	switch p.Kind() {
	case path.KindRoot:
		return len(a.rootChildren(p))

	case path.KindModule:
		mod, ok := a.module(p.ModuleID())
		if !ok {
			return 0
		}
		if p.ModuleID() == GlobalModuleID {
			return len(mod.vars) + len(a.modules) - 1
		}
		return len(mod.vars)

	case path.KindStaticVar:
		if v, ok := a.varOf(p); ok {
			return v.Count()
		}
		return 0

	case path.KindElement:
		if _, ok := a.elementValue(p); ok {
			return 1
		}
		return 0

	case path.KindParam:
		param, ok := a.paramOf(p)
		if !ok {
			return 0
		}
		switch param.Type {
		case debuggee.ParamLocal:
			if param.Var == nil {
				return 0
			}
			return param.Var.Count()
		case debuggee.ParamStr, debuggee.ParamDouble, debuggee.ParamInt, debuggee.ParamLabel:
			return 1
		default:
			return 0
		}

	case path.KindFlex:
		inst, ok := a.Instance(p)
		if !ok || inst == nil {
			return 0
		}
		return len(inst.Members)

	case path.KindSystemVarList:
		return len(debuggee.SystemVarKinds())

	case path.KindSystemVar:
		return 1

	case path.KindCallStack:
		return len(a.api.CallFrameIDs())

	case path.KindCallFrame:
		frame, ok := a.api.CallFrame(p.CallFrameID())
		if !ok {
			return 0
		}
		return len(frame.Params)

	case path.KindLabel, path.KindStr, path.KindDouble, path.KindInt, path.KindUnknown,
		path.KindGeneral, path.KindLog, path.KindScript, path.KindUnavailable, path.KindTruncated:
		return 0

	default:
		return 0
	}
}

// ChildAt returns the i-th child. Positions that no longer exist yield an Unavailable path.
func (a *Accessor) ChildAt(p *path.Path, i int) *path.Path {
	if i < 0 || i >= a.ChildCount(p) {
		return a.interner.Intern(p.Unavailable(fmt.Sprintf("no child at %d", i)))
	}
	return a.interner.Intern(a.childAt(p, i))
}

func (a *Accessor) childAt(p *path.Path, i int) *path.Path {
	switch p.Kind() {
	case path.KindRoot:
		return a.rootChildren(p)[i]

	case path.KindModule:
		mod, _ := a.module(p.ModuleID())
		if i < len(mod.vars) {
			return p.StaticVar(mod.vars[i])
		}
		return p.Module(i - len(mod.vars) + 1)

	case path.KindStaticVar:
		v, _ := a.varOf(p)
		return p.Element(v.ElementIndexes(i), v.Lengths.Dim())

	case path.KindElement:
		v, _ := a.varOf(p.Parent())
		return valueChild(p, v.Type)

	case path.KindParam:
		param, _ := a.paramOf(p)
		switch param.Type {
		case debuggee.ParamLocal:
			return p.Element(param.Var.ElementIndexes(i), param.Var.Lengths.Dim())
		case debuggee.ParamStr:
			return p.Str()
		case debuggee.ParamDouble:
			return p.Double()
		case debuggee.ParamInt:
			return p.Int()
		case debuggee.ParamLabel:
			return p.Label()
		}
		return p.Unknown()

	case path.KindFlex:
		inst, _ := a.Instance(p)
		return p.Param(inst.Members[i].Type, i)

	case path.KindSystemVarList:
		return p.SystemVar(debuggee.SystemVarKinds()[i])

	case path.KindSystemVar:
		return valueChild(p, p.SystemVarKind().Type())

	case path.KindCallStack:
		return p.CallFrame(a.api.CallFrameIDs()[i])

	case path.KindCallFrame:
		frame, _ := a.api.CallFrame(p.CallFrameID())
		return p.Param(frame.Params[i].Type, i)

	default:
		return p.Unavailable("leaf")
	}
}

func valueChild(p *path.Path, typ debuggee.Type) *path.Path {
	switch typ {
	case debuggee.TypeLabel:
		return p.Label()
	case debuggee.TypeStr:
		return p.Str()
	case debuggee.TypeDouble:
		return p.Double()
	case debuggee.TypeInt:
		return p.Int()
	case debuggee.TypeStruct:
		return p.Flex()
	default:
		return p.Unknown()
	}
}

// Name returns the display name of the node.
func (a *Accessor) Name(p *path.Path) string {
	a.refresh(false)

	switch p.Kind() {
	case path.KindRoot:
		return "root"

	case path.KindModule:
		if mod, ok := a.module(p.ModuleID()); ok {
			return mod.name
		}
		return "<unavailable>"

	case path.KindStaticVar:
		if name, ok := a.api.StaticVarName(p.StaticVarID()); ok {
			return name
		}
		return "<unavailable>"

	case path.KindElement:
		return p.Indexes().Format(p.Dim())

	case path.KindParam:
		if param, ok := a.paramOf(p); ok && param.Name != "" {
			return param.Name
		}
		return fmt.Sprintf("(%d)", p.ParamIndex())

	case path.KindLabel, path.KindStr, path.KindDouble, path.KindInt:
		return p.Kind().String()

	case path.KindFlex:
		return "struct"

	case path.KindSystemVarList:
		return "[sysvar]"

	case path.KindSystemVar:
		return p.SystemVarKind().String()

	case path.KindCallStack:
		return "[dynamic]"

	case path.KindCallFrame:
		if frame, ok := a.api.CallFrame(p.CallFrameID()); ok {
			return frame.Name
		}
		return "<unavailable>"

	case path.KindGeneral:
		return "[general]"

	case path.KindLog:
		return "[log]"

	case path.KindScript:
		return "[script]"

	case path.KindUnavailable:
		return "<unavailable>"

	case path.KindUnknown:
		return "unknown"

	case path.KindTruncated:
		return "…"

	default:
		return p.Kind().String()
	}
}
