package path

import (
	"testing"

	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathEquality(t *testing.T) {
	t.Run("independently built paths are equal", func(t *testing.T) {
		a := Root().Module(0).StaticVar(3).Element(debuggee.Indexes{1, 2}, 2).Int()
		b := Root().Module(0).StaticVar(3).Element(debuggee.Indexes{1, 2}, 2).Int()

		assert.NotSame(t, a, b)
		assert.True(t, a.Equal(b))
		assert.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("fields distinguish paths", func(t *testing.T) {
		base := Root().Module(0)
		assert.False(t, base.StaticVar(1).Equal(base.StaticVar(2)))
		assert.False(t, base.StaticVar(1).Equal(Root().Module(1).StaticVar(1)))
		assert.False(t, Root().Log().Equal(Root().Script()))
		assert.False(t, Root().Unavailable("a").Equal(Root().Unavailable("b")))
		assert.False(t, Root().CallStack().CallFrame(1).Param(debuggee.ParamInt, 0).
			Equal(Root().CallStack().CallFrame(1).Param(debuggee.ParamStr, 0)))
	})

	t.Run("parent chains differ in length", func(t *testing.T) {
		assert.False(t, Root().Int().Equal(Root().Log().Int()))
	})

	t.Run("root is unique", func(t *testing.T) {
		assert.Same(t, Root(), Root())
		assert.Nil(t, Root().Parent())
		assert.Equal(t, 0, Root().Depth())
		assert.Equal(t, 3, Root().CallStack().CallFrame(4).Param(debuggee.ParamLocal, 1).Depth())
	})
}

func TestPathAccessors(t *testing.T) {
	frame := Root().CallStack().CallFrame(7)
	assert.Equal(t, 7, frame.CallFrameID())
	assert.Equal(t, KindCallFrame, frame.Kind())

	param := frame.Param(debuggee.ParamStr, 2)
	assert.Equal(t, debuggee.ParamStr, param.ParamType())
	assert.Equal(t, 2, param.ParamIndex())

	sv := Root().SystemVarList().SystemVar(debuggee.SysStat)
	assert.Equal(t, debuggee.SysStat, sv.SystemVarKind())

	assert.Panics(t, func() { frame.StaticVarID() })
	assert.Equal(t, "root/callstack/frame(7)/param(str 2)", param.String())
}

func TestMap(t *testing.T) {
	m := NewMap[int]()
	m.Set(Root().Module(0).StaticVar(1), 10)
	m.Set(Root().Module(0).StaticVar(2), 20)
	m.Set(Root().Module(0).StaticVar(1), 11)
	require.Equal(t, 2, m.Len())

	v, ok := m.Get(Root().Module(0).StaticVar(1))
	require.True(t, ok)
	assert.Equal(t, 11, v)

	assert.True(t, m.Delete(Root().Module(0).StaticVar(1)))
	assert.False(t, m.Delete(Root().Module(0).StaticVar(1)))
	_, ok = m.Get(Root().Module(0).StaticVar(1))
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestInterner(t *testing.T) {
	in := NewInterner(2)
	a := in.Intern(Root().Log())
	b := in.Intern(Root().Log())
	assert.Same(t, a, b)

	in.Intern(Root().Script())
	in.Intern(Root().General())
	assert.LessOrEqual(t, in.Len(), 2)
}
