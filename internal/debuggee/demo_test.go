package debuggee

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticks(d *Demo, n int) {
	for range n {
		d.Tick()
	}
}

func TestDemoSetup(t *testing.T) {
	mem := NewMemory()
	d := NewDemo(mem)
	assert.Equal(t, Location{File: DemoFile, Line: 5}, mem.Location())

	ticks(d, 7)
	assert.Equal(t, 5, mem.StaticVarCount())
	assert.Equal(t, 13, mem.Location().Line)

	names, ok := mem.StaticVar(d.names)
	require.True(t, ok)
	assert.Equal(t, StrValue("gamma"), names.Elems[2])

	points, ok := mem.StaticVar(d.points)
	require.True(t, ok)
	require.Equal(t, 2, points.Count())
	assert.Equal(t, "point", points.Elems[1].Flex.Module)
	assert.Equal(t, "points", points.Name)

	lines := strings.Split(DemoSource, "\n")
	assert.Equal(t, "\tcounter++", lines[13])
	assert.Equal(t, "\tacc = n * 2", lines[20])
}

func TestDemoLoop(t *testing.T) {
	mem := NewMemory()
	d := NewDemo(mem)
	ticks(d, 7+4)

	assert.Equal(t, 1, mem.Depth())
	assert.Equal(t, 20, mem.Location().Line)
	assert.Equal(t, "tick 1\n", mem.Log())

	frame, ok := mem.CallFrame(mem.CallFrameIDs()[0])
	require.True(t, ok)
	assert.Equal(t, "walk", frame.Name)
	assert.Equal(t, 16, frame.Line)
	assert.Equal(t, "beta", frame.Params[1].Value.Str)

	ticks(d, 3)
	assert.Equal(t, 0, mem.Depth())
	assert.Equal(t, "tick 1\nbeta:2\n", mem.Log())
	assert.Equal(t, 17, mem.Location().Line)

	d.Tick()
	assert.Equal(t, 13, mem.Location().Line)
	assert.Equal(t, IntValue(1), mem.SystemVar(SysCnt))
}

func TestDemoStepping(t *testing.T) {
	mem := NewMemory()
	d := NewDemo(mem)
	ticks(d, 7+3)
	require.Equal(t, 16, mem.Location().Line)
	mem.Drain()

	t.Run("step over a call", func(t *testing.T) {
		d.SetMode(ModeStepOver)
		d.Tick()
		assert.Equal(t, ModeStepOver, mem.Mode())
		ticks(d, 3)
		assert.Equal(t, ModeStop, mem.Mode())
		assert.Equal(t, 17, mem.Location().Line)

		notices := mem.Drain()
		var stopped []Notice
		for _, n := range notices {
			if n.Kind == NoticeStopped {
				stopped = append(stopped, n)
			}
		}
		require.Len(t, stopped, 1)
		assert.Equal(t, 17, stopped[0].Location.Line)
	})

	t.Run("stopped does not move", func(t *testing.T) {
		ticks(d, 5)
		assert.Equal(t, 17, mem.Location().Line)
	})

	t.Run("step in", func(t *testing.T) {
		d.SetMode(ModeStepIn)
		d.Tick()
		assert.Equal(t, ModeStop, mem.Mode())
		assert.Equal(t, 13, mem.Location().Line)
	})

	t.Run("step out", func(t *testing.T) {
		d.SetMode(ModeRun)
		ticks(d, 4)
		require.Equal(t, 1, mem.Depth())
		d.SetMode(ModeStepOut)
		ticks(d, 3)
		assert.Equal(t, ModeStop, mem.Mode())
		assert.Equal(t, 0, mem.Depth())
	})

	t.Run("terminate", func(t *testing.T) {
		d.Terminate()
		d.SetMode(ModeRun)
		d.Tick()
		assert.True(t, mem.Terminated())
		assert.Equal(t, ModeStop, d.Mode())
	})
}
