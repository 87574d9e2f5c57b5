package accessor

import (
	"testing"

	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mem   *debuggee.Memory
	acc   *Accessor
	count int
	arr   int
	msg   int
	obj   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := debuggee.NewMemory()

	count := debuggee.NewVar("count", debuggee.TypeInt)
	count.Elems[0] = debuggee.IntValue(5)

	arr := debuggee.NewVar("arr", debuggee.TypeInt, 3)
	for i := range arr.Elems {
		arr.Elems[i] = debuggee.IntValue(int32(i + 1))
	}

	msg := debuggee.NewVar("msg@app", debuggee.TypeStr)
	msg.Elems[0] = debuggee.StrValue("hi")

	obj := debuggee.NewVar("obj", debuggee.TypeStruct, 2)
	obj.Elems[0] = debuggee.FlexValue(&debuggee.Instance{
		Module: "point",
		Members: []debuggee.Param{
			{Type: debuggee.ParamInt, Name: "x", Value: debuggee.IntValue(3)},
			{Type: debuggee.ParamStr, Name: "tag", Value: debuggee.StrValue("p")},
		},
	})
	obj.Elems[1] = debuggee.FlexValue(nil)

	f := &fixture{mem: mem}
	f.count = mem.AddVar(count)
	f.arr = mem.AddVar(arr)
	f.msg = mem.AddVar(msg)
	f.obj = mem.AddVar(obj)
	f.acc = New(mem)
	return f
}

func names(acc *Accessor, p *path.Path) []string {
	var out []string
	for i := range acc.ChildCount(p) {
		out = append(out, acc.Name(acc.ChildAt(p, i)))
	}
	return out
}

func TestRootAndModules(t *testing.T) {
	f := newFixture(t)
	root := f.acc.Root()

	assert.Equal(t, []string{"@", "[dynamic]", "[sysvar]", "[script]", "[log]", "[general]"}, names(f.acc, root))

	global := f.acc.ChildAt(root, 0)
	assert.Equal(t, []string{"arr", "count", "obj", "@app"}, names(f.acc, global))

	app := f.acc.ChildAt(global, 3)
	require.Equal(t, path.KindModule, app.Kind())
	assert.Equal(t, []string{"msg@app"}, names(f.acc, app))
}

func TestGroupByModule(t *testing.T) {
	modules := groupByModule([]string{"b@z", "a", "c@y", "a@y"})
	require.Len(t, modules, 3)
	assert.Equal(t, "@", modules[0].name)
	assert.Equal(t, []int{1}, modules[0].vars)
	assert.Equal(t, "@y", modules[1].name)
	assert.Equal(t, []int{3, 2}, modules[1].vars)
	assert.Equal(t, "@z", modules[2].name)

	assert.Len(t, groupByModule(nil), 1)
}

func TestVariables(t *testing.T) {
	f := newFixture(t)
	global := path.Root().Module(GlobalModuleID)

	t.Run("array flow form", func(t *testing.T) {
		arr := global.StaticVar(f.arr)
		assert.Equal(t, 3, f.acc.ChildCount(arr))
		assert.Equal(t, "<int>[1, 2, 3]", f.acc.FlowRepr(arr))
		assert.Equal(t, []string{"(0)", "(1)", "(2)"}, names(f.acc, arr))
	})

	t.Run("element holds one scalar", func(t *testing.T) {
		elem := f.acc.ChildAt(global.StaticVar(f.count), 0)
		require.Equal(t, 1, f.acc.ChildCount(elem))
		value := f.acc.ChildAt(elem, 0)
		assert.Equal(t, path.KindInt, value.Kind())
		assert.Equal(t, "5", f.acc.FlowRepr(value))
	})

	t.Run("module instances", func(t *testing.T) {
		obj := global.StaticVar(f.obj)
		assert.Equal(t, `<struct>[point{3, "p"}, null]`, f.acc.FlowRepr(obj))

		flex := f.acc.ChildAt(f.acc.ChildAt(obj, 0), 0)
		require.Equal(t, path.KindFlex, flex.Kind())
		assert.Equal(t, []string{"x", "tag"}, names(f.acc, flex))

		null := f.acc.ChildAt(f.acc.ChildAt(obj, 1), 0)
		assert.Equal(t, 0, f.acc.ChildCount(null))
	})
}

func TestStalePaths(t *testing.T) {
	f := newFixture(t)
	global := path.Root().Module(GlobalModuleID)
	arr := global.StaticVar(f.arr)
	last := f.acc.ChildAt(arr, 2)
	value := f.acc.ChildAt(last, 0)

	shrunk := debuggee.NewVar("", debuggee.TypeInt, 2)
	require.True(t, f.mem.SetVar(f.arr, shrunk))

	assert.Equal(t, 0, f.acc.ChildCount(last))
	assert.Equal(t, "<unavailable>", f.acc.FlowRepr(value))
	assert.Equal(t, path.KindUnavailable, f.acc.ChildAt(arr, 2).Kind())

	t.Run("type change", func(t *testing.T) {
		strs := debuggee.NewVar("", debuggee.TypeStr, 2)
		require.True(t, f.mem.SetVar(f.arr, strs))
		first := f.acc.ChildAt(arr, 0)
		stale := first.Int()
		assert.Equal(t, "<unavailable>", f.acc.FlowRepr(stale))
		assert.Equal(t, path.KindStr, f.acc.ChildAt(first, 0).Kind())
	})

	t.Run("unknown variable", func(t *testing.T) {
		ghost := global.StaticVar(99)
		assert.Equal(t, 0, f.acc.ChildCount(ghost))
		assert.Equal(t, "<unavailable>", f.acc.Name(ghost))
	})
}

func TestCallFrames(t *testing.T) {
	f := newFixture(t)
	local := debuggee.NewVar("", debuggee.TypeInt, 2)
	f.mem.SetLocation(debuggee.Location{File: "main.hsp", Line: 12})
	id := f.mem.PushFrame("greet",
		debuggee.Param{Type: debuggee.ParamStr, Name: "who", Value: debuggee.StrValue("you")},
		debuggee.Param{Type: debuggee.ParamLocal, Name: "tmp", Var: local},
	)

	stack := path.Root().CallStack()
	require.Equal(t, 1, f.acc.ChildCount(stack))
	frame := f.acc.ChildAt(stack, 0)
	assert.Equal(t, id, frame.CallFrameID())
	assert.Equal(t, "greet", f.acc.Name(frame))
	assert.Equal(t, []string{"who", "tmp"}, names(f.acc, frame))

	site, ok := f.acc.CallSite(frame)
	require.True(t, ok)
	assert.Equal(t, debuggee.Location{File: "main.hsp", Line: 12}, site)

	tmp := f.acc.ChildAt(frame, 1)
	assert.Equal(t, 2, f.acc.ChildCount(tmp))
	assert.Equal(t, `"you"`, f.acc.FlowRepr(f.acc.ChildAt(f.acc.ChildAt(frame, 0), 0)))

	t.Run("param type must still match", func(t *testing.T) {
		wrong := frame.Param(debuggee.ParamInt, 0)
		assert.Equal(t, 0, f.acc.ChildCount(wrong))
		assert.Equal(t, "(0)", f.acc.Name(wrong))
	})

	t.Run("popped frame", func(t *testing.T) {
		require.True(t, f.mem.PopFrame())
		assert.Equal(t, 0, f.acc.ChildCount(frame))
		assert.Equal(t, "<unavailable>", f.acc.Name(frame))
		assert.Equal(t, 0, f.acc.ChildCount(tmp))
	})
}

func TestSystemVarsAndContent(t *testing.T) {
	f := newFixture(t)
	f.mem.SetSystemVar(debuggee.SysRefstr, debuggee.StrValue("ok"))
	f.mem.AppendLog("hello")
	f.mem.SetGeneral("version", "1.0")

	list := path.Root().SystemVarList()
	require.Equal(t, len(debuggee.SystemVarKinds()), f.acc.ChildCount(list))

	refstr := list.SystemVar(debuggee.SysRefstr)
	child := f.acc.ChildAt(refstr, 0)
	assert.Equal(t, path.KindStr, child.Kind())
	assert.Equal(t, `"ok"`, f.acc.FlowRepr(child))

	assert.Equal(t, "hello\n", f.acc.Content(path.Root().Log()))
	assert.Equal(t, "version = 1.0\n", f.acc.Content(path.Root().General()))
	assert.Equal(t, "", f.acc.Content(path.Root().Script()))
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\td\ne"`, Literal("a\"b\\c\td\ne"))
	assert.Equal(t, `""`, Literal(""))
}
