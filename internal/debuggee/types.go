package debuggee

import (
	"fmt"
	"strings"
)

// Type is the runtime type of a variable or value
type Type int

const (
	TypeUnknown Type = iota
	TypeLabel
	TypeStr
	TypeDouble
	TypeInt
	TypeStruct
	TypeComObj
)

var typeNames = [...]string{"unknown", "label", "str", "double", "int", "struct", "comobj"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[TypeUnknown]
	}
	return typeNames[t]
}

// MaxDim is the maximum number of array dimensions
const MaxDim = 4

// Indexes holds per-dimension lengths of a variable or the indexes of one element.
type Indexes [MaxDim]int

// Dim returns the number of used dimensions, counting leading non-zero lengths.
func (ix Indexes) Dim() int {
	for i, n := range ix {
		if n == 0 {
			return i
		}
	}
	return MaxDim
}

// Size returns the product of the used lengths (0 when no dimension is used).
func (ix Indexes) Size() int {
	dim := ix.Dim()
	if dim == 0 {
		return 0
	}

	size := 1
	for i := range dim {
		size *= ix[i]
	}
	return size
}

func (ix Indexes) Format(dim int) string {
	dim = max(1, min(dim, MaxDim))

	parts := make([]string, dim)
	for i := range dim {
		parts[i] = fmt.Sprint(ix[i])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParamType is the declared type of a command parameter or module member
type ParamType int

const (
	ParamUnknown ParamType = iota
	ParamLabel
	ParamDouble
	ParamStr
	ParamInt
	ParamVar
	ParamArray
	ParamLocal
	ParamModVar
)

func (t ParamType) String() string {
	switch t {
	case ParamLabel:
		return "label"
	case ParamDouble:
		return "double"
	case ParamStr:
		return "str"
	case ParamInt:
		return "int"
	case ParamVar:
		return "var"
	case ParamArray:
		return "array"
	case ParamLocal:
		return "local"
	case ParamModVar:
		return "modvar"
	default:
		return "unknown"
	}
}

// SystemVarKind identifies one system variable
type SystemVarKind int

const (
	SysCnt SystemVarKind = iota
	SysErr
	SysIParam
	SysWParam
	SysLParam
	SysLoopLev
	SysSubLev
	SysRefstr
	SysRefdval
	SysStat
	SysStrSize
)

var systemVarNames = [...]string{
	"cnt", "err", "iparam", "wparam", "lparam", "looplev", "sublev", "refstr", "refdval", "stat", "strsize",
}

// SystemVarKinds lists every system variable in display order.
func SystemVarKinds() []SystemVarKind {
	kinds := make([]SystemVarKind, len(systemVarNames))
	for i := range kinds {
		kinds[i] = SystemVarKind(i)
	}
	return kinds
}

func (k SystemVarKind) String() string {
	if k < 0 || int(k) >= len(systemVarNames) {
		return fmt.Sprintf("sysvar(%d)", int(k))
	}
	return systemVarNames[k]
}

// Type returns the type of the value the system variable holds.
func (k SystemVarKind) Type() Type {
	switch k {
	case SysRefstr:
		return TypeStr
	case SysRefdval:
		return TypeDouble
	default:
		return TypeInt
	}
}

// Label is a jump target. ID is -1 when the label is not a static label.
type Label struct {
	Null bool
	ID   int
	Name string
}

// Instance is a module instance stored in a struct-typed value.
type Instance struct {
	Module  string
	Members []Param
}

// Value is one typed value. A struct value with a nil Flex is a null instance.
type Value struct {
	Type   Type
	Int    int32
	Double float64
	Str    string
	Label  Label
	Flex   *Instance
}

func IntValue(n int32) Value         { return Value{Type: TypeInt, Int: n} }
func DoubleValue(f float64) Value    { return Value{Type: TypeDouble, Double: f} }
func StrValue(s string) Value        { return Value{Type: TypeStr, Str: s} }
func LabelValue(l Label) Value       { return Value{Type: TypeLabel, Label: l} }
func FlexValue(inst *Instance) Value { return Value{Type: TypeStruct, Flex: inst} }

// Var is a variable: a typed array of values laid out in row-major order
type Var struct {
	Name    string
	Type    Type
	Lengths Indexes
	Elems   []Value
}

// NewVar allocates a variable whose elements hold the zero value of typ.
func NewVar(name string, typ Type, lengths ...int) *Var {
	v := &Var{Name: name, Type: typ}
	if len(lengths) == 0 {
		lengths = []int{1}
	}
	for i, n := range lengths {
		if i >= MaxDim {
			break
		}
		v.Lengths[i] = n
	}

	v.Elems = make([]Value, v.Lengths.Size())
	for i := range v.Elems {
		v.Elems[i] = Value{Type: typ}
	}
	return v
}

// Count returns the number of elements currently held.
func (v *Var) Count() int {
	return len(v.Elems)
}

// ElementIndexes converts a flat element offset into per-dimension indexes.
func (v *Var) ElementIndexes(offset int) Indexes {
	var ix Indexes
	dim := v.Lengths.Dim()
	for i := range dim {
		n := v.Lengths[i]
		if n <= 0 {
			break
		}
		ix[i] = offset % n
		offset /= n
	}
	return ix
}

// ElementOffset converts per-dimension indexes into a flat offset.
func (v *Var) ElementOffset(ix Indexes) (int, bool) {
	dim := v.Lengths.Dim()
	offset, stride := 0, 1
	for i := range MaxDim {
		if i >= dim {
			if ix[i] != 0 {
				return 0, false
			}
			continue
		}
		if ix[i] < 0 || ix[i] >= v.Lengths[i] {
			return 0, false
		}
		offset += ix[i] * stride
		stride *= v.Lengths[i]
	}

	if offset >= len(v.Elems) {
		return 0, false
	}
	return offset, true
}

// ElementAt returns the element at the given indexes, checking every bound.
func (v *Var) ElementAt(ix Indexes) (Value, bool) {
	offset, ok := v.ElementOffset(ix)
	if !ok {
		return Value{}, false
	}
	return v.Elems[offset], true
}

// Param is one argument of a call frame or one member of a module instance.
// Local parameters carry a variable, the others carry a value.
type Param struct {
	Type  ParamType
	Name  string
	Value Value
	Var   *Var
}

// Frame is one live user-defined command call.
type Frame struct {
	ID     int
	Name   string
	File   string
	Line   int
	Params []Param
}

// Location is a source position. Line is 0-based; File is empty when unknown.
type Location struct {
	File string
	Line int
}

// Entry is one key/value line of the general runtime information.
type Entry struct {
	Key   string
	Value string
}

// RunMode is how the debuggee proceeds after a command
type RunMode int

const (
	ModeRun RunMode = iota
	ModeStop
	ModeStepIn
	ModeStepOver
	ModeStepOut
)

func (m RunMode) String() string {
	switch m {
	case ModeRun:
		return "running"
	case ModeStop:
		return "stopped"
	case ModeStepIn:
		return "step in"
	case ModeStepOver:
		return "step over"
	case ModeStepOut:
		return "step out"
	default:
		return "unknown"
	}
}

// NoticeKind classifies debuggee-originated notifications
type NoticeKind int

const (
	NoticeLog NoticeKind = iota
	NoticeStopped
	NoticeTerminated
)

// Notice is something the debuggee reports without being asked.
type Notice struct {
	Kind     NoticeKind
	Text     string
	Location Location
}
