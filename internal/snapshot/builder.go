package snapshot

import (
	"fmt"

	"github.com/mabhi256/livetree/internal/accessor"
	"github.com/mabhi256/livetree/internal/path"
)

// MaxChildCount caps how many children of one scope the synchronized list shows.
const MaxChildCount = 300

// Row is one visible line of the flattened tree.
type Row struct {
	ObjectID   int
	Depth      int
	Name       string
	Value      string
	ChildCount int
}

// Expansion decides whether a scope's children are visible.
type Expansion interface {
	IsExpanded(p *path.Path) bool
}

// IDProvider hands out stable object ids for paths.
type IDProvider interface {
	IDOf(p *path.Path) int
}

// Builder flattens the visible part of the tree into rows, depth-first, pre-order.
type Builder struct {
	acc   *accessor.Accessor
	ids   IDProvider
	exp   Expansion
	limit int

	rows  []Row
	depth int
}

func NewBuilder(acc *accessor.Accessor, ids IDProvider, exp Expansion, limit int) *Builder {
	if limit <= 0 {
		limit = MaxChildCount
	}
	return &Builder{acc: acc, ids: ids, exp: exp, limit: limit}
}

// Build returns the rows under the root. The root itself is not a row.
func (b *Builder) Build() []Row {
	return b.BuildFrom(b.acc.Root())
}

// BuildFrom returns the rows for the children of start. Start itself has no row,
// so its children are listed whatever its expansion state.
func (b *Builder) BuildFrom(start *path.Path) []Row {
	b.rows = nil
	b.depth = 0
	b.addItems(start)
	return b.rows
}

func (b *Builder) add(p *path.Path) {
	count := b.acc.ChildCount(p)
	if count == 1 {
		child := b.acc.ChildAt(p, 0)
		if child.Kind().IsScalar() {
			b.addValue(p, child)
			return
		}
	}

	b.addScope(p, count)
}

func (b *Builder) addChildren(p *path.Path) {
	if b.exp.IsExpanded(p) {
		b.addItems(p)
	}
}

func (b *Builder) addItems(p *path.Path) {
	count := b.acc.ChildCount(p)
	for i := range min(count, b.limit) {
		b.add(b.acc.ChildAt(p, i))
	}

	if count > b.limit {
		b.addTruncated(p, count)
	}
}

func (b *Builder) addScope(p *path.Path, count int) {
	b.rows = append(b.rows, Row{
		ObjectID:   b.ids.IDOf(p),
		Depth:      b.depth,
		Name:       b.acc.Name(p),
		Value:      fmt.Sprintf("(%d):", count),
		ChildCount: count,
	})

	b.depth++
	b.addChildren(p)
	b.depth--
}

// addValue emits a "name = value" row for a node whose only child is a scalar.
func (b *Builder) addValue(p, value *path.Path) {
	b.rows = append(b.rows, Row{
		ObjectID: b.ids.IDOf(p),
		Depth:    b.depth,
		Name:     b.acc.Name(p),
		Value:    b.acc.FlowRepr(value),
	})
}

func (b *Builder) addTruncated(p *path.Path, total int) {
	b.rows = append(b.rows, Row{
		ObjectID: b.ids.IDOf(p.Truncated()),
		Depth:    b.depth,
		Name:     fmt.Sprintf("…(%d total)", total),
	})
}
