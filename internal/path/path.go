package path

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/mabhi256/livetree/internal/debuggee"
)

// Kind tags the node a Path addresses
type Kind int

const (
	KindRoot Kind = iota
	KindModule
	KindStaticVar
	KindElement
	KindParam
	KindLabel
	KindStr
	KindDouble
	KindInt
	KindFlex
	KindSystemVarList
	KindSystemVar
	KindCallStack
	KindCallFrame
	KindGeneral
	KindLog
	KindScript
	KindUnavailable
	KindUnknown
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindModule:
		return "module"
	case KindStaticVar:
		return "var"
	case KindElement:
		return "elem"
	case KindParam:
		return "param"
	case KindLabel:
		return "label"
	case KindStr:
		return "str"
	case KindDouble:
		return "double"
	case KindInt:
		return "int"
	case KindFlex:
		return "flex"
	case KindSystemVarList:
		return "sysvars"
	case KindSystemVar:
		return "sysvar"
	case KindCallStack:
		return "callstack"
	case KindCallFrame:
		return "frame"
	case KindGeneral:
		return "general"
	case KindLog:
		return "log"
	case KindScript:
		return "script"
	case KindUnavailable:
		return "unavailable"
	case KindUnknown:
		return "unknown"
	case KindTruncated:
		return "truncated"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsScalar reports whether nodes of this kind hold a single leaf value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindLabel, KindStr, KindDouble, KindInt, KindUnknown:
		return true
	default:
		return false
	}
}

// Path is an immutable address of one node in the debuggee's object tree.
// It only records where to look; nothing is read until an accessor resolves it.
type Path struct {
	kind   Kind
	parent *Path

	num     int // module id, var id, param index, sysvar kind or frame id
	ptype   debuggee.ParamType
	indexes debuggee.Indexes
	dim     int
	reason  string

	hash uint64
}

var root = newPath(KindRoot, nil, func(p *Path) {})

// Root returns the unique root path.
func Root() *Path {
	return root
}

func newPath(kind Kind, parent *Path, init func(p *Path)) *Path {
	p := &Path{kind: kind, parent: parent}
	init(p)
	p.hash = p.computeHash()
	return p
}

func (p *Path) computeHash() uint64 {
	buf := make([]byte, 0, 64+len(p.reason))
	if p.parent != nil {
		buf = binary.LittleEndian.AppendUint64(buf, p.parent.hash)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.kind))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.num))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.ptype))
	for _, ix := range p.indexes {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(ix))
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.dim))
	buf = append(buf, p.reason...)
	return xxhash.Sum64(buf)
}

func (p *Path) Kind() Kind {
	return p.kind
}

// Parent returns nil for the root.
func (p *Path) Parent() *Path {
	return p.parent
}

// Hash is a structural hash: equal paths have equal hashes.
func (p *Path) Hash() uint64 {
	return p.hash
}

// Depth is the number of parent links up to the root.
func (p *Path) Depth() int {
	depth := 0
	for q := p.parent; q != nil; q = q.parent {
		depth++
	}
	return depth
}

// Equal compares kind, fields and parent chains.
func (p *Path) Equal(o *Path) bool {
	for p != nil && o != nil {
		if p == o {
			return true
		}
		if p.hash != o.hash || p.kind != o.kind || p.num != o.num || p.ptype != o.ptype ||
			p.indexes != o.indexes || p.dim != o.dim || p.reason != o.reason {
			return false
		}
		p, o = p.parent, o.parent
	}
	return p == nil && o == nil
}

func (p *Path) mustBe(kind Kind) {
	if p.kind != kind {
		panic(fmt.Sprintf("path: %s accessor called on %s path", kind, p.kind))
	}
}

func (p *Path) ModuleID() int {
	p.mustBe(KindModule)
	return p.num
}

func (p *Path) StaticVarID() int {
	p.mustBe(KindStaticVar)
	return p.num
}

func (p *Path) Indexes() debuggee.Indexes {
	p.mustBe(KindElement)
	return p.indexes
}

// Dim is the number of significant indexes of an element path.
func (p *Path) Dim() int {
	p.mustBe(KindElement)
	return p.dim
}

func (p *Path) ParamType() debuggee.ParamType {
	p.mustBe(KindParam)
	return p.ptype
}

func (p *Path) ParamIndex() int {
	p.mustBe(KindParam)
	return p.num
}

func (p *Path) SystemVarKind() debuggee.SystemVarKind {
	p.mustBe(KindSystemVar)
	return debuggee.SystemVarKind(p.num)
}

func (p *Path) CallFrameID() int {
	p.mustBe(KindCallFrame)
	return p.num
}

func (p *Path) Reason() string {
	p.mustBe(KindUnavailable)
	return p.reason
}

func (p *Path) Module(id int) *Path {
	return newPath(KindModule, p, func(c *Path) { c.num = id })
}

func (p *Path) StaticVar(id int) *Path {
	return newPath(KindStaticVar, p, func(c *Path) { c.num = id })
}

func (p *Path) Element(indexes debuggee.Indexes, dim int) *Path {
	return newPath(KindElement, p, func(c *Path) {
		c.indexes = indexes
		c.dim = dim
	})
}

func (p *Path) Param(ptype debuggee.ParamType, index int) *Path {
	return newPath(KindParam, p, func(c *Path) {
		c.ptype = ptype
		c.num = index
	})
}

func (p *Path) Label() *Path         { return p.leaf(KindLabel) }
func (p *Path) Str() *Path           { return p.leaf(KindStr) }
func (p *Path) Double() *Path        { return p.leaf(KindDouble) }
func (p *Path) Int() *Path           { return p.leaf(KindInt) }
func (p *Path) Flex() *Path          { return p.leaf(KindFlex) }
func (p *Path) SystemVarList() *Path { return p.leaf(KindSystemVarList) }
func (p *Path) CallStack() *Path     { return p.leaf(KindCallStack) }
func (p *Path) General() *Path       { return p.leaf(KindGeneral) }
func (p *Path) Log() *Path           { return p.leaf(KindLog) }
func (p *Path) Script() *Path        { return p.leaf(KindScript) }
func (p *Path) Unknown() *Path       { return p.leaf(KindUnknown) }

// Truncated addresses the marker standing in for children past a cap.
func (p *Path) Truncated() *Path { return p.leaf(KindTruncated) }

func (p *Path) SystemVar(kind debuggee.SystemVarKind) *Path {
	return newPath(KindSystemVar, p, func(c *Path) { c.num = int(kind) })
}

func (p *Path) CallFrame(id int) *Path {
	return newPath(KindCallFrame, p, func(c *Path) { c.num = id })
}

func (p *Path) Unavailable(reason string) *Path {
	return newPath(KindUnavailable, p, func(c *Path) { c.reason = reason })
}

func (p *Path) leaf(kind Kind) *Path {
	return newPath(kind, p, func(c *Path) {})
}

// String renders the chain from the root, e.g. "root/module(0)/var(3)/elem(0)".
func (p *Path) String() string {
	var parts []string
	for q := p; q != nil; q = q.parent {
		parts = append(parts, q.segment())
	}

	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteString(parts[i])
		if i != 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

func (p *Path) segment() string {
	switch p.kind {
	case KindModule, KindStaticVar, KindCallFrame:
		return fmt.Sprintf("%s(%d)", p.kind, p.num)
	case KindElement:
		return p.kind.String() + p.indexes.Format(p.dim)
	case KindParam:
		return fmt.Sprintf("%s(%s %d)", p.kind, p.ptype, p.num)
	case KindSystemVar:
		return fmt.Sprintf("%s(%s)", p.kind, debuggee.SystemVarKind(p.num))
	case KindUnavailable:
		return fmt.Sprintf("%s(%q)", p.kind, p.reason)
	default:
		return p.kind.String()
	}
}
