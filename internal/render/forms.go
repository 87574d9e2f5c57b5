package render

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mabhi256/livetree/internal/accessor"
	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/path"
)

// DetailChildLimit caps how many children a detail view lists per scope.
const DetailChildLimit = 3000

type Options struct {
	ChildLimit int // children per scope, DetailChildLimit when zero
	TextLimit  int // bytes, unlimited when zero
}

type renderer struct {
	acc        *accessor.Accessor
	w          *Writer
	childLimit int
}

func newRenderer(acc *accessor.Accessor, opts Options) *renderer {
	limit := opts.ChildLimit
	if limit <= 0 {
		limit = DetailChildLimit
	}
	return &renderer{acc: acc, w: NewWriter(opts.TextLimit), childLimit: limit}
}

// Table renders the full multi-line detail view of a node.
func Table(acc *accessor.Accessor, p *path.Path, opts Options) string {
	r := newRenderer(acc, opts)
	r.table(p)
	return r.w.String()
}

// Block renders a node the way it appears nested inside a detail view.
func Block(acc *accessor.Accessor, p *path.Path, opts Options) string {
	r := newRenderer(acc, opts)
	r.block(p)
	return r.w.String()
}

func (r *renderer) writeName(p *path.Path) {
	r.w.Cat("[")
	r.w.Cat(r.acc.Name(p))
	r.w.Catln("]")
}

func (r *renderer) table(p *path.Path) {
	w := r.w

	switch p.Kind() {
	case path.KindStaticVar:
		r.writeName(p)
		v, ok := r.acc.Var(p)
		if !ok {
			w.Catln("reason: variable not available")
			return
		}

		w.Cat("type: ")
		w.Catln(arrayType(v.Type, v.Lengths))
		w.Catln(fmt.Sprintf("size: %d / %d [byte]", v.DataSize(), len(v.Block())))
		w.Line()

		r.blockChildren(p)
		w.Line()

		w.Cat(hex.Dump(v.Block()))

	case path.KindCallFrame:
		r.writeName(p)

		w.Cat("call site: ")
		site, ok := r.acc.CallSite(p)
		if ok {
			w.Cat(fmt.Sprintf("#%d ", site.Line+1))
		}
		if ok && site.File != "" {
			w.Catln(site.File)
		} else {
			w.Catln("???")
		}
		w.Line()

		r.blockChildren(p)

	case path.KindGeneral, path.KindLog:
		r.writeName(p)
		w.Cat(r.acc.Content(p))

	case path.KindScript:
		// script only, so line numbers match the source
		w.Catln(r.acc.Content(p))

	case path.KindUnavailable:
		r.writeName(p)
		w.Cat("reason: ")
		w.Catln(p.Reason())

	default:
		r.writeName(p)
		r.blockChildren(p)
	}
}

func arrayType(typ debuggee.Type, lengths debuggee.Indexes) string {
	var sb strings.Builder
	sb.WriteString(typ.String())

	switch dim := lengths.Dim(); dim {
	case 0:
		sb.WriteString("(empty)")
	case 1:
		fmt.Fprintf(&sb, "(%d)", lengths[0])
	default:
		parts := make([]string, dim)
		for i := range dim {
			parts[i] = fmt.Sprint(lengths[i])
		}
		fmt.Fprintf(&sb, "(%s) (%d in total)", strings.Join(parts, ", "), lengths.Size())
	}
	return sb.String()
}

func (r *renderer) block(p *path.Path) {
	w := r.w
	if w.Full() {
		return
	}

	switch p.Kind() {
	case path.KindModule:
		w.Catln(r.acc.Name(p))

	case path.KindStaticVar:
		w.Cat(shortName(r.acc.Name(p)))
		w.Cat("\t= ")
		w.Cat(r.acc.FlowRepr(p))
		w.Line()

	case path.KindLabel, path.KindUnknown:
		w.Catln(r.acc.FlowRepr(p))

	case path.KindStr:
		s, ok := r.acc.StrValue(p)
		if !ok {
			w.Catln("<unavailable>")
			return
		}
		w.Catln(s)

	case path.KindDouble:
		f, ok := r.acc.DoubleValue(p)
		if !ok {
			w.Catln("<unavailable>")
			return
		}
		w.Catln(fmt.Sprintf("%.16f", f))

	case path.KindInt:
		n, ok := r.acc.IntValue(p)
		if !ok {
			w.Catln("<unavailable>")
			return
		}
		w.Catln(fmt.Sprintf("%-10d (0x%08X)", n, uint32(n)))

	case path.KindFlex:
		inst, ok := r.acc.Instance(p)
		switch {
		case !ok:
			w.Catln("<unavailable>")
		case inst == nil:
			w.Catln("<null>")
		default:
			w.Cat(".module = ")
			w.Catln(inst.Module)
			r.blockChildren(p)
		}

	default:
		r.nameChildren(p)
	}
}

func (r *renderer) blockChildren(p *path.Path) {
	count := r.acc.ChildCount(p)
	for i := range min(count, r.childLimit) {
		r.block(r.acc.ChildAt(p, i))
	}

	if count > r.childLimit {
		r.w.Catln(fmt.Sprintf(".. (total %d)", count))
	}
}

func (r *renderer) nameChildren(p *path.Path) {
	w := r.w
	name := r.acc.Name(p)

	count := r.acc.ChildCount(p)
	if count == 0 {
		w.Catln(name)
		return
	}

	first := r.acc.ChildAt(p, 0)
	if count == 1 && r.compact(first) {
		w.Cat(name)
		w.Cat("\t= ")
		r.block(first)
		return
	}

	w.Cat(name)
	w.Catln(":")
	w.Indent()
	r.blockChildren(p)
	w.Unindent()
}

// compact reports whether the node fits on the same line as its parent's name.
func (r *renderer) compact(p *path.Path) bool {
	switch p.Kind() {
	case path.KindLabel, path.KindDouble, path.KindInt, path.KindUnknown:
		return true

	case path.KindStr:
		s, _ := r.acc.StrValue(p)
		return compactString(s)

	case path.KindFlex:
		inst, ok := r.acc.Instance(p)
		return !ok || inst == nil

	default:
		return false
	}
}

func compactString(s string) bool {
	return len(s) < 64 && !strings.Contains(s, "\n")
}

func shortName(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[:i]
	}
	return name
}
