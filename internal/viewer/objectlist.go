package viewer

import (
	"fmt"
	"slices"

	"github.com/mabhi256/livetree/internal/diff"
	"github.com/mabhi256/livetree/internal/snapshot"
)

// ObjectList mirrors the server's visible rows by applying the list updates it sends.
type ObjectList struct {
	rows    []snapshot.Row
	updates int
}

// Apply decodes one list update and applies it. It returns the number of edits.
// On error the list is left unchanged.
func (l *ObjectList) Apply(text string) (int, error) {
	deltas, err := diff.Decode(text)
	if err != nil {
		return 0, fmt.Errorf("decode list update: %w", err)
	}
	rows, err := diff.Apply(l.rows, deltas)
	if err != nil {
		return 0, err
	}
	l.rows = rows
	l.updates++
	return len(deltas), nil
}

func (l *ObjectList) Len() int {
	return len(l.rows)
}

func (l *ObjectList) Row(i int) (snapshot.Row, bool) {
	if i < 0 || i >= len(l.rows) {
		return snapshot.Row{}, false
	}
	return l.rows[i], true
}

// IndexOf returns the position of the row with the given object id, or -1
func (l *ObjectList) IndexOf(objectID int) int {
	return slices.IndexFunc(l.rows, func(r snapshot.Row) bool { return r.ObjectID == objectID })
}

// Updates counts the list updates applied so far
func (l *ObjectList) Updates() int {
	return l.updates
}

func (l *ObjectList) Reset() {
	l.rows = nil
	l.updates = 0
}
