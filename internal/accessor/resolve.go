package accessor

import (
	"strings"

	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/path"
)

// varOf resolves a variable-like path: a static variable or a local parameter.
func (a *Accessor) varOf(p *path.Path) (*debuggee.Var, bool) {
	switch p.Kind() {
	case path.KindStaticVar:
		return a.api.StaticVar(p.StaticVarID())

	case path.KindParam:
		param, ok := a.paramOf(p)
		if !ok || param.Type != debuggee.ParamLocal || param.Var == nil {
			return nil, false
		}
		return param.Var, true

	default:
		return nil, false
	}
}

// paramOf resolves a parameter of a live call frame or a member of a live module instance.
// The declared type must still match the one recorded in the path.
func (a *Accessor) paramOf(p *path.Path) (*debuggee.Param, bool) {
	parent := p.Parent()
	if parent == nil {
		return nil, false
	}

	var params []debuggee.Param
	switch parent.Kind() {
	case path.KindCallFrame:
		frame, ok := a.api.CallFrame(parent.CallFrameID())
		if !ok {
			return nil, false
		}
		params = frame.Params

	case path.KindFlex:
		inst, ok := a.Instance(parent)
		if !ok || inst == nil {
			return nil, false
		}
		params = inst.Members

	default:
		return nil, false
	}

	i := p.ParamIndex()
	if i < 0 || i >= len(params) || params[i].Type != p.ParamType() {
		return nil, false
	}
	return &params[i], true
}

// elementValue resolves an element path, checking the indexes against the current lengths.
func (a *Accessor) elementValue(p *path.Path) (debuggee.Value, bool) {
	v, ok := a.varOf(p.Parent())
	if !ok {
		return debuggee.Value{}, false
	}
	return v.ElementAt(p.Indexes())
}

// holderValue resolves the value held by the parent of a scalar or flex path.
func (a *Accessor) holderValue(holder *path.Path) (debuggee.Value, bool) {
	if holder == nil {
		return debuggee.Value{}, false
	}

	switch holder.Kind() {
	case path.KindElement:
		return a.elementValue(holder)

	case path.KindParam:
		param, ok := a.paramOf(holder)
		if !ok || param.Type == debuggee.ParamLocal {
			return debuggee.Value{}, false
		}
		return param.Value, true

	case path.KindSystemVar:
		return a.api.SystemVar(holder.SystemVarKind()), true

	default:
		return debuggee.Value{}, false
	}
}

func (a *Accessor) typedValue(p *path.Path, kind path.Kind, typ debuggee.Type) (debuggee.Value, bool) {
	if p.Kind() != kind {
		return debuggee.Value{}, false
	}
	value, ok := a.holderValue(p.Parent())
	if !ok || value.Type != typ {
		return debuggee.Value{}, false
	}
	return value, true
}

func (a *Accessor) IntValue(p *path.Path) (int32, bool) {
	v, ok := a.typedValue(p, path.KindInt, debuggee.TypeInt)
	return v.Int, ok
}

func (a *Accessor) DoubleValue(p *path.Path) (float64, bool) {
	v, ok := a.typedValue(p, path.KindDouble, debuggee.TypeDouble)
	return v.Double, ok
}

func (a *Accessor) StrValue(p *path.Path) (string, bool) {
	v, ok := a.typedValue(p, path.KindStr, debuggee.TypeStr)
	return v.Str, ok
}

func (a *Accessor) LabelValue(p *path.Path) (debuggee.Label, bool) {
	v, ok := a.typedValue(p, path.KindLabel, debuggee.TypeLabel)
	return v.Label, ok
}

// Instance resolves a flex path. ok is false when unavailable; a nil instance is a null module.
func (a *Accessor) Instance(p *path.Path) (*debuggee.Instance, bool) {
	v, ok := a.typedValue(p, path.KindFlex, debuggee.TypeStruct)
	if !ok {
		return nil, false
	}
	return v.Flex, true
}

// VarType returns the type of a static variable or local parameter.
func (a *Accessor) VarType(p *path.Path) (debuggee.Type, bool) {
	v, ok := a.varOf(p)
	if !ok {
		return debuggee.TypeUnknown, false
	}
	return v.Type, true
}

// Var returns the variable a static variable or local parameter path denotes.
func (a *Accessor) Var(p *path.Path) (*debuggee.Var, bool) {
	return a.varOf(p)
}

// CallSite returns where a live call frame was entered.
func (a *Accessor) CallSite(p *path.Path) (debuggee.Location, bool) {
	if p.Kind() != path.KindCallFrame {
		return debuggee.Location{}, false
	}
	frame, ok := a.api.CallFrame(p.CallFrameID())
	if !ok {
		return debuggee.Location{}, false
	}
	return debuggee.Location{File: frame.File, Line: frame.Line}, true
}

// Content returns the text of a log, script or general node.
func (a *Accessor) Content(p *path.Path) string {
	switch p.Kind() {
	case path.KindLog:
		return a.api.Log()

	case path.KindScript:
		if a.scripts == nil {
			return ""
		}
		content, _ := a.scripts.ContentByRef(a.api.Location().File)
		return content

	case path.KindGeneral:
		var sb strings.Builder
		for _, e := range a.api.General() {
			sb.WriteString(e.Key)
			sb.WriteString(" = ")
			sb.WriteString(e.Value)
			sb.WriteByte('\n')
		}
		return sb.String()

	default:
		return ""
	}
}

// Location returns the debuggee's current source position.
func (a *Accessor) Location() debuggee.Location {
	return a.api.Location()
}
