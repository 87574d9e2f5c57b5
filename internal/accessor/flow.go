package accessor

import (
	"fmt"
	"strings"

	"github.com/mabhi256/livetree/internal/path"
)

// FlowChildLimit caps how many children a flow rendering lists.
const FlowChildLimit = 3000

// FlowRepr renders the node on one line without recursing into scopes' details.
// It is what a row shows as its value.
func (a *Accessor) FlowRepr(p *path.Path) string {
	var sb strings.Builder
	a.writeFlow(&sb, p)
	return sb.String()
}

func (a *Accessor) writeFlow(w *strings.Builder, p *path.Path) {
	switch p.Kind() {
	case path.KindStaticVar:
		typ, _ := a.VarType(p)
		w.WriteString("<")
		w.WriteString(typ.String())
		w.WriteString(">[")
		a.writeFlowChildren(w, p)
		w.WriteString("]")

	case path.KindLabel:
		label, ok := a.LabelValue(p)
		switch {
		case !ok || label.Null:
			w.WriteString("<null-label>")
		case label.Name != "":
			w.WriteString("*" + label.Name)
		case label.ID >= 0:
			fmt.Fprintf(w, "*#%d", label.ID)
		default:
			w.WriteString("<label>")
		}

	case path.KindStr:
		if s, ok := a.StrValue(p); ok {
			w.WriteString(Literal(s))
		} else {
			w.WriteString("<unavailable>")
		}

	case path.KindDouble:
		if f, ok := a.DoubleValue(p); ok {
			fmt.Fprintf(w, "%f", f)
		} else {
			w.WriteString("<unavailable>")
		}

	case path.KindInt:
		if n, ok := a.IntValue(p); ok {
			fmt.Fprintf(w, "%d", n)
		} else {
			w.WriteString("<unavailable>")
		}

	case path.KindFlex:
		inst, ok := a.Instance(p)
		switch {
		case !ok:
			w.WriteString("<unavailable>")
		case inst == nil:
			w.WriteString("null")
		default:
			w.WriteString(inst.Module)
			w.WriteString("{")
			a.writeFlowChildren(w, p)
			w.WriteString("}")
		}

	case path.KindUnknown:
		w.WriteString("<unknown>")

	case path.KindUnavailable:
		w.WriteString("<unavailable>")

	case path.KindTruncated:
		w.WriteString("…")

	default:
		a.writeFlowChildren(w, p)
	}
}

func (a *Accessor) writeFlowChildren(w *strings.Builder, p *path.Path) {
	count := a.ChildCount(p)
	for i := range min(count, FlowChildLimit) {
		if i != 0 {
			w.WriteString(", ")
		}
		a.writeFlow(w, a.ChildAt(p, i))
	}

	if count > FlowChildLimit {
		w.WriteString("; ..")
	}
}

// Literal quotes s as a string literal.
func Literal(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
