package diff

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/mabhi256/livetree/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id, depth int, name, value string, count int) snapshot.Row {
	return snapshot.Row{ObjectID: id, Depth: depth, Name: name, Value: value, ChildCount: count}
}

func TestComputeCollapse(t *testing.T) {
	a := row(1, 0, "A", "(2):", 2)
	a0 := row(2, 1, "A0", "1", 0)
	a1 := row(3, 1, "A1", "2", 0)
	b := row(4, 0, "B", "hi", 0)

	deltas, ok := Compute([]snapshot.Row{a, a0, a1, b}, []snapshot.Row{a, b})
	require.True(t, ok)
	assert.Equal(t, []Delta{
		{Kind: Remove, Index: 1, Row: snapshot.Row{ObjectID: 2}},
		{Kind: Remove, Index: 1, Row: snapshot.Row{ObjectID: 3}},
	}, deltas)

	t.Run("expand again", func(t *testing.T) {
		deltas, ok := Compute([]snapshot.Row{a, b}, []snapshot.Row{a, a0, a1, b})
		require.True(t, ok)
		assert.Equal(t, []Delta{
			{Kind: Insert, Index: 1, Row: a0},
			{Kind: Insert, Index: 2, Row: a1},
		}, deltas)
	})
}

func TestComputeUpdates(t *testing.T) {
	source := []snapshot.Row{row(1, 0, "x", "1", 0), row(2, 0, "y", "2", 0)}
	target := []snapshot.Row{row(1, 0, "x", "1", 0), row(2, 0, "y", "3", 0)}

	deltas, ok := Compute(source, target)
	require.True(t, ok)
	assert.Equal(t, []Delta{{Kind: Update, Index: 1, Row: target[1]}}, deltas)

	deltas, ok = Compute(target, target)
	require.True(t, ok)
	assert.Empty(t, deltas)

	deltas, ok = Compute(nil, nil)
	assert.True(t, ok)
	assert.Empty(t, deltas)
}

func TestComputeReorder(t *testing.T) {
	source := []snapshot.Row{row(1, 0, "x", "", 0), row(2, 0, "y", "", 0)}
	target := []snapshot.Row{row(2, 0, "y", "", 0), row(1, 0, "x", "", 0)}

	deltas, ok := Compute(source, target)
	assert.False(t, ok)
	assert.Empty(t, deltas)

	out, err := Apply(source, Replace(source, target))
	require.NoError(t, err)
	assert.Equal(t, target, out)
}

func TestApply(t *testing.T) {
	rows := []snapshot.Row{row(1, 0, "x", "", 0)}

	_, err := Apply(rows, []Delta{{Kind: Remove, Index: 0, Row: snapshot.Row{ObjectID: 9}}})
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = Apply(rows, []Delta{{Kind: Insert, Index: 3, Row: row(2, 0, "y", "", 0)}})
	assert.ErrorIs(t, err, ErrMismatch)

	out, err := Apply(rows, nil)
	require.NoError(t, err)
	assert.Equal(t, rows, out)
}

// randomRows picks an ordered subset of a fixed universe, so shared ids keep their relative order.
// Scope rows carry their child count in the value, the way the builder writes them.
func randomRows(rng *rand.Rand, universe int) []snapshot.Row {
	var rows []snapshot.Row
	for id := 1; id <= universe; id++ {
		if rng.Intn(3) == 0 {
			continue
		}
		count := rng.Intn(3)
		value := fmt.Sprintf(`"v,%d"`, rng.Intn(4))
		if count > 0 {
			value = fmt.Sprintf("(%d):", count)
		}
		rows = append(rows, row(id, rng.Intn(3), fmt.Sprintf("n%d", id), value, count))
	}
	return rows
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := range 500 {
		source := randomRows(rng, 20)
		target := randomRows(rng, 20)

		deltas, ok := Compute(source, target)
		require.True(t, ok, "case %d", i)

		out, err := Apply(source, deltas)
		require.NoError(t, err, "case %d", i)
		if len(target) == 0 {
			assert.Empty(t, out, "case %d", i)
		} else {
			assert.Equal(t, target, out, "case %d", i)
		}

		decoded, err := Decode(Encode(deltas))
		require.NoError(t, err)
		viaText, err := Apply(source, decoded)
		require.NoError(t, err)
		if len(target) == 0 {
			assert.Empty(t, viaText, "case %d", i)
		} else {
			assert.Equal(t, target, viaText, "case %d", i)
		}
	}
}
