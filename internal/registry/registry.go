package registry

import (
	"github.com/mabhi256/livetree/internal/accessor"
	"github.com/mabhi256/livetree/internal/diff"
	"github.com/mabhi256/livetree/internal/logger"
	"github.com/mabhi256/livetree/internal/path"
	"github.com/mabhi256/livetree/internal/snapshot"
	"go.uber.org/zap"
)

var log = logger.NewNamed("registry")

type Option func(r *Registry)

// WithChildLimit caps how many children of one scope show up in the list
func WithChildLimit(limit int) Option {
	return func(r *Registry) {
		r.limit = limit
	}
}

// Registry hands out stable object ids for paths, remembers which scopes are
// expanded, and tracks both the list it built last and the list the client holds.
type Registry struct {
	acc   *accessor.Accessor
	limit int

	ids      *path.Map[int]
	paths    *Table[int, *path.Path]
	expanded *path.Map[bool]
	lastID   int

	list     []snapshot.Row
	sent     []snapshot.Row
	prevSent []snapshot.Row
	metrics  *metrics
}

func New(acc *accessor.Accessor, opts ...Option) *Registry {
	r := &Registry{
		acc:      acc,
		limit:    snapshot.MaxChildCount,
		ids:      path.NewMap[int](),
		paths:    NewTable[int, *path.Path](),
		expanded: path.NewMap[bool](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IDOf returns the id of p, assigning the next one on first sight. Ids start at 1.
func (r *Registry) IDOf(p *path.Path) int {
	if id, ok := r.ids.Get(p); ok {
		return id
	}

	r.lastID++
	r.ids.Set(p, r.lastID)
	r.paths.Add(r.lastID, p)
	return r.lastID
}

func (r *Registry) PathOf(id int) (*path.Path, bool) {
	return r.paths.Get(id)
}

// IsExpanded reports the stored state of p. The root and its children start expanded.
func (r *Registry) IsExpanded(p *path.Path) bool {
	if v, ok := r.expanded.Get(p); ok {
		return v
	}
	parent := p.Parent()
	return parent == nil || parent.Kind() == path.KindRoot
}

// ToggleExpand flips the expansion of the object behind id. Ids that are unknown,
// not in the current list, or without children are ignored.
func (r *Registry) ToggleExpand(id int) bool {
	p, ok := r.paths.Get(id)
	if !ok {
		return false
	}

	item, ok := r.find(id)
	if !ok || item.ChildCount == 0 {
		return false
	}

	expanded := !r.IsExpanded(p)
	r.expanded.Set(p, expanded)
	log.Debug("toggle expand", zap.Int("id", id), zap.Stringer("path", p), zap.Bool("expanded", expanded))
	return true
}

// Forget drops the id, its path and the path's expansion state
func (r *Registry) Forget(id int) {
	p, ok := r.paths.Get(id)
	if !ok {
		return
	}
	r.paths.Delete(id)
	r.ids.Delete(p)
	r.expanded.Delete(p)
}

// Update rebuilds the list and returns the edits that turn the client's list
// into it. Ids that left the list are forgotten.
func (r *Registry) Update() []diff.Delta {
	next := snapshot.NewBuilder(r.acc, r, r, r.limit).Build()

	deltas, ok := diff.Compute(r.sent, next)
	if !ok {
		log.Warn("list reordered, replacing it", zap.Int("from", len(r.sent)), zap.Int("to", len(next)))
		deltas = diff.Replace(r.sent, next)
	}

	kept := make(map[int]struct{}, len(next))
	for _, row := range next {
		kept[row.ObjectID] = struct{}{}
	}
	for _, row := range r.list {
		if _, ok := kept[row.ObjectID]; !ok {
			r.Forget(row.ObjectID)
		}
	}

	r.list = next
	r.prevSent, r.sent = r.sent, next
	r.metrics.observe(deltas, !ok)
	if len(deltas) > 0 {
		log.Debug("list updated", zap.Int("rows", len(next)), zap.Int("deltas", len(deltas)))
	}
	return deltas
}

// Undo takes back the last Update on the client side, for an update that never
// reached it. The next Update diffs against the list the client still holds.
func (r *Registry) Undo() {
	r.sent = r.prevSent
}

// Reset marks the client as holding no rows, so the next Update inserts every row.
// Ids and expansion state are kept.
func (r *Registry) Reset() {
	r.sent = nil
	r.prevSent = nil
}

// List returns the list as of the last Update
func (r *Registry) List() []snapshot.Row {
	return r.list
}

// Tracked returns the number of paths holding an id
func (r *Registry) Tracked() int {
	return r.paths.Len()
}

func (r *Registry) find(id int) (snapshot.Row, bool) {
	for _, row := range r.list {
		if row.ObjectID == id {
			return row, true
		}
	}
	return snapshot.Row{}, false
}
