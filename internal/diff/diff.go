package diff

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mabhi256/livetree/internal/snapshot"
)

var ErrMismatch = errors.New("delta does not apply")

// Kind is the kind of an edit
type Kind int

const (
	Insert Kind = iota
	Remove
	Update
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "+"
	case Remove:
		return "-"
	case Update:
		return "!"
	default:
		return "?"
	}
}

// Delta is one edit. Index is the position in the list being edited at the time the
// edit applies. A Remove only carries the object id of the removed row.
type Delta struct {
	Kind  Kind
	Index int
	Row   snapshot.Row
}

func (d Delta) String() string {
	return fmt.Sprintf("%s%d@%d", d.Kind, d.Row.ObjectID, d.Index)
}

// Compute returns the edits turning source into target, matching rows by object id.
//
// Rows present in both lists must keep their relative order. When they do not,
// ok is false and the edit list is empty. Reordering is not supported; see Replace.
//
// Matching is quadratic in the list length, which the child cap keeps small.
func Compute(source, target []snapshot.Row) (deltas []Delta, ok bool) {
	sourceDone := make([]bool, len(source))
	targetDone := make([]bool, len(target))

	for si := range source {
		for ti := range target {
			if !targetDone[ti] && target[ti].ObjectID == source[si].ObjectID {
				sourceDone[si] = true
				targetDone[ti] = true
				break
			}
		}
	}

	si, ti := 0, 0
	for si < len(source) || ti < len(target) {
		switch {
		case ti == len(target) || (si < len(source) && !sourceDone[si]):
			deltas = append(deltas, Delta{
				Kind:  Remove,
				Index: ti,
				Row:   snapshot.Row{ObjectID: source[si].ObjectID},
			})
			si++

		case si == len(source) || (ti < len(target) && !targetDone[ti]):
			deltas = append(deltas, Delta{Kind: Insert, Index: ti, Row: target[ti]})
			ti++

		case source[si].ObjectID == target[ti].ObjectID:
			if source[si] != target[ti] {
				deltas = append(deltas, Delta{Kind: Update, Index: ti, Row: target[ti]})
			}
			si++
			ti++

		default:
			return nil, false
		}
	}

	return deltas, true
}

// Replace returns edits that drop every source row and then insert every target row.
func Replace(source, target []snapshot.Row) []Delta {
	deltas := make([]Delta, 0, len(source)+len(target))
	for _, r := range source {
		deltas = append(deltas, Delta{Kind: Remove, Index: 0, Row: snapshot.Row{ObjectID: r.ObjectID}})
	}
	for i, r := range target {
		deltas = append(deltas, Delta{Kind: Insert, Index: i, Row: r})
	}
	return deltas
}

// Apply edits a copy of rows. It fails when an edit does not fit the list.
func Apply(rows []snapshot.Row, deltas []Delta) ([]snapshot.Row, error) {
	out := slices.Clone(rows)

	for _, d := range deltas {
		switch d.Kind {
		case Insert:
			if d.Index < 0 || d.Index > len(out) {
				return nil, fmt.Errorf("%w: insert at %d of %d rows", ErrMismatch, d.Index, len(out))
			}
			out = slices.Insert(out, d.Index, d.Row)

		case Remove:
			if d.Index < 0 || d.Index >= len(out) {
				return nil, fmt.Errorf("%w: remove at %d of %d rows", ErrMismatch, d.Index, len(out))
			}
			if out[d.Index].ObjectID != d.Row.ObjectID {
				return nil, fmt.Errorf("%w: remove %d found %d at %d", ErrMismatch, d.Row.ObjectID, out[d.Index].ObjectID, d.Index)
			}
			out = slices.Delete(out, d.Index, d.Index+1)

		case Update:
			if d.Index < 0 || d.Index >= len(out) {
				return nil, fmt.Errorf("%w: update at %d of %d rows", ErrMismatch, d.Index, len(out))
			}
			if out[d.Index].ObjectID != d.Row.ObjectID {
				return nil, fmt.Errorf("%w: update %d found %d at %d", ErrMismatch, d.Row.ObjectID, out[d.Index].ObjectID, d.Index)
			}
			out[d.Index] = d.Row

		default:
			return nil, fmt.Errorf("%w: unknown kind %d", ErrMismatch, d.Kind)
		}
	}

	return out, nil
}
