package render

import (
	"strings"
	"testing"

	"github.com/mabhi256/livetree/internal/accessor"
	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/path"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*debuggee.Memory, *accessor.Accessor) {
	t.Helper()
	mem := debuggee.NewMemory()

	count := debuggee.NewVar("count", debuggee.TypeInt)
	count.Elems[0] = debuggee.IntValue(5)
	mem.AddVar(count)

	arr := debuggee.NewVar("arr", debuggee.TypeInt, 3)
	for i := range arr.Elems {
		arr.Elems[i] = debuggee.IntValue(int32(i + 1))
	}
	mem.AddVar(arr)

	grid := debuggee.NewVar("grid@app", debuggee.TypeDouble, 2, 2)
	mem.AddVar(grid)

	return mem, accessor.New(mem)
}

func TestTableStaticVar(t *testing.T) {
	_, acc := setup(t)
	global := path.Root().Module(accessor.GlobalModuleID)

	text := Table(acc, global.StaticVar(0), Options{})
	lines := strings.Split(text, "\n")
	require.GreaterOrEqual(t, len(lines), 6)
	assert.Equal(t, "[count]", lines[0])
	assert.Equal(t, "type: int(1)", lines[1])
	assert.Equal(t, "size: 4 / 4 [byte]", lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "(0)\t= 5          (0x00000005)", lines[4])
	assert.Contains(t, text, "05 00 00 00")

	grid := Table(acc, global.Module(1).StaticVar(2), Options{})
	assert.Contains(t, grid, "type: double(2, 2) (4 in total)")
}

func TestTableScopes(t *testing.T) {
	_, acc := setup(t)

	t.Run("module", func(t *testing.T) {
		text := Table(acc, path.Root().Module(accessor.GlobalModuleID), Options{})
		assert.Equal(t, "[@]\narr\t= <int>[1, 2, 3]\ncount\t= <int>[5]\n@app\n", text)
	})

	t.Run("child limit", func(t *testing.T) {
		arr := path.Root().Module(accessor.GlobalModuleID).StaticVar(1)
		text := Block(acc, path.Root().Module(accessor.GlobalModuleID), Options{})
		assert.Equal(t, "@\n", text)

		r := newRenderer(acc, Options{ChildLimit: 2})
		r.blockChildren(arr)
		assert.Equal(t, "(0)\t= 1          (0x00000001)\n(1)\t= 2          (0x00000002)\n.. (total 3)\n", r.w.String())
	})

	t.Run("system variables nest", func(t *testing.T) {
		text := Table(acc, path.Root().SystemVarList(), Options{})
		assert.True(t, strings.HasPrefix(text, "[[sysvar]]\ncnt\t= 0"))
		assert.Contains(t, text, "refstr\t= \n")
	})
}

func TestTableLeaves(t *testing.T) {
	mem, acc := setup(t)
	mem.AppendLog("hello")
	mem.SetLocation(debuggee.Location{File: "main.hsp", Line: 12})
	mem.PushFrame("greet", debuggee.Param{Type: debuggee.ParamInt, Name: "n", Value: debuggee.IntValue(-1)})

	assert.Equal(t, "[[log]]\nhello\n", Table(acc, path.Root().Log(), Options{}))
	assert.Equal(t, "[<unavailable>]\nreason: gone\n", Table(acc, path.Root().Unavailable("gone"), Options{}))

	frame := acc.ChildAt(path.Root().CallStack(), 0)
	text := Table(acc, frame, Options{})
	assert.Equal(t, "[greet]\ncall site: #13 main.hsp\n\nn\t= -1         (0xFFFFFFFF)\n", text)

	mem.PopFrame()
	assert.Contains(t, Table(acc, frame, Options{}), "call site: ???")
}

func TestWriter(t *testing.T) {
	t.Run("indent", func(t *testing.T) {
		w := NewWriter(0)
		w.Catln("a:")
		w.Indent()
		w.Cat("b\nc")
		w.Line()
		w.Unindent()
		w.Catln("d")
		assert.Equal(t, "a:\n\tb\n\tc\nd\n", w.String())
	})

	t.Run("limit", func(t *testing.T) {
		w := NewWriter(20)
		w.Cat("0123456789abcdefghij")
		assert.True(t, w.Full())
		assert.Equal(t, "0123456789(too long)", w.String())

		w.Cat("more")
		assert.Equal(t, "0123456789(too long)", w.String())
	})

	t.Run("limit keeps runes whole", func(t *testing.T) {
		w := NewWriter(12)
		w.Cat("ああああ")
		assert.Equal(t, "(too long)", w.String())
	})
}
