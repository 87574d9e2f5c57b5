package debuggee

import (
	"fmt"
	"strings"
)

// DemoFile is the file name the demo program runs from
const DemoFile = "demo.hsp"

// DemoSource is the text of the demo program. Line numbers in it match the
// locations the demo reports.
var DemoSource = strings.Join([]string{
	"#module point x, y",
	"#modinit int _x, int _y",
	"\tx = _x : y = _y",
	"\treturn",
	"#global",
	"\tldim target, 1 : target = *main",
	"\tdim counter",
	"\tsdim names, 16, 3",
	"\tnames = \"alpha\", \"beta\", \"gamma\"",
	"\tddim ratio, 2",
	"\tnewmod points, point, 1, 2",
	"\tnewmod points, point, 3, 4",
	"*main",
	"\tcounter++",
	"\tratio(counter \\ 2) = 1.0 / counter",
	"\tlogmes \"tick \" + counter",
	"\twalk counter, names(counter \\ 3)",
	"\tawait 0 : goto *main",
	"",
	"#deffunc walk int n, str s, local acc",
	"\tacc = n * 2",
	"\tlogmes s + \":\" + acc",
	"\treturn",
}, "\n") + "\n"

const (
	demoStart = 5
	demoMain  = 13
	demoWalk  = 20

	// the log is cleared once it grows past this
	demoLogLimit = 32 << 10
)

// Demo runs a small scripted program against a Memory, one statement per step.
// It controls the run mode the way a debugger stub would.
type Demo struct {
	mem   *Memory
	pc    int
	base  int
	steps int

	target, counter, names, ratio, points int
}

func NewDemo(mem *Memory) *Demo {
	d := &Demo{mem: mem, pc: demoStart}
	mem.SetLocation(Location{File: DemoFile, Line: d.pc})
	mem.SetGeneral("program", DemoFile)
	mem.SetGeneral("steps", "0")
	return d
}

// SetMode resumes or pauses the program. Step modes remember the current call
// depth to know where the step ends.
func (d *Demo) SetMode(mode RunMode) {
	if d.mem.Terminated() {
		return
	}
	if mode == ModeStop {
		d.mem.Stop()
		return
	}
	d.base = d.mem.Depth()
	d.mem.SetMode(mode)
}

func (d *Demo) Mode() RunMode {
	return d.mem.Mode()
}

func (d *Demo) Terminate() {
	d.mem.Terminate()
}

// Tick advances the program according to the run mode
func (d *Demo) Tick() {
	if d.mem.Terminated() {
		return
	}

	switch d.mem.Mode() {
	case ModeRun:
		d.step()
	case ModeStepIn:
		d.step()
		d.mem.Stop()
	case ModeStepOver:
		d.step()
		if d.mem.Depth() <= d.base {
			d.mem.Stop()
		}
	case ModeStepOut:
		d.step()
		if d.mem.Depth() < d.base {
			d.mem.Stop()
		}
	}
}

func (d *Demo) step() {
	d.pc = d.exec(d.pc)
	d.mem.SetLocation(Location{File: DemoFile, Line: d.pc})
	d.steps++
	d.mem.SetGeneral("steps", fmt.Sprint(d.steps))
}

// exec runs the statement at line and returns the next line
func (d *Demo) exec(line int) int {
	m := d.mem

	switch line {
	case 5:
		v := NewVar("target", TypeLabel)
		v.Elems[0] = LabelValue(Label{ID: 0, Name: "main"})
		d.target = m.AddVar(v)
		return 6

	case 6:
		d.counter = m.AddVar(NewVar("counter", TypeInt))
		return 7

	case 7:
		d.names = m.AddVar(NewVar("names", TypeStr, 3))
		return 8

	case 8:
		for i, s := range []string{"alpha", "beta", "gamma"} {
			m.SetElement(d.names, i, StrValue(s))
		}
		return 9

	case 9:
		d.ratio = m.AddVar(NewVar("ratio", TypeDouble, 2))
		return 10

	case 10:
		d.points = m.AddVar(NewVar("points", TypeStruct, 1))
		m.SetElement(d.points, 0, FlexValue(newPoint(1, 2)))
		return 11

	case 11:
		v, _ := m.StaticVar(d.points)
		grown := NewVar(v.Name, TypeStruct, 2)
		grown.Elems[0] = v.Elems[0]
		grown.Elems[1] = FlexValue(newPoint(3, 4))
		m.SetVar(d.points, grown)
		return demoMain

	case 13:
		n := d.count() + 1
		m.SetElement(d.counter, 0, IntValue(n))
		m.SetSystemVar(SysCnt, IntValue(n))
		return 14

	case 14:
		n := d.count()
		m.SetElement(d.ratio, int(n%2), DoubleValue(1.0/float64(n)))
		return 15

	case 15:
		if len(m.Log()) > demoLogLimit {
			m.ClearLog()
		}
		m.AppendLog(fmt.Sprintf("tick %d", d.count()))
		return 16

	case 16:
		n := d.count()
		names, _ := m.StaticVar(d.names)
		m.PushFrame("walk",
			Param{Type: ParamInt, Name: "n", Value: IntValue(n)},
			Param{Type: ParamStr, Name: "s", Value: names.Elems[int(n)%len(names.Elems)]},
			Param{Type: ParamLocal, Name: "acc", Var: NewVar("acc", TypeInt)},
		)
		return demoWalk

	case 17:
		m.SetSystemVar(SysStat, IntValue(0))
		return demoMain

	case 20:
		if frame, ok := d.innermost(); ok {
			frame.Params[2].Var.Elems[0] = IntValue(frame.Params[0].Value.Int * 2)
			m.touch()
		}
		return 21

	case 21:
		if frame, ok := d.innermost(); ok {
			m.AppendLog(fmt.Sprintf("%s:%d", frame.Params[1].Value.Str, frame.Params[2].Var.Elems[0].Int))
		}
		return 22

	case 22:
		m.PopFrame()
		return 17

	default:
		return demoMain
	}
}

func (d *Demo) count() int32 {
	v, ok := d.mem.StaticVar(d.counter)
	if !ok {
		return 0
	}
	return v.Elems[0].Int
}

func (d *Demo) innermost() (*Frame, bool) {
	ids := d.mem.CallFrameIDs()
	if len(ids) == 0 {
		return nil, false
	}
	return d.mem.CallFrame(ids[len(ids)-1])
}

func newPoint(x, y int32) *Instance {
	vx := NewVar("x", TypeInt)
	vx.Elems[0] = IntValue(x)
	vy := NewVar("y", TypeInt)
	vy.Elems[0] = IntValue(y)
	return &Instance{
		Module: "point",
		Members: []Param{
			{Type: ParamLocal, Name: "x", Var: vx},
			{Type: ParamLocal, Name: "y", Var: vy},
		},
	}
}
