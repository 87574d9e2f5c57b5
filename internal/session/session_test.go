package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mabhi256/livetree/internal/config"
	"github.com/mabhi256/livetree/internal/debuggee"
	"github.com/mabhi256/livetree/internal/diff"
	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/mabhi256/livetree/internal/snapshot"
	"github.com/mabhi256/livetree/internal/source"
	"github.com/mabhi256/livetree/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainSource = "\tmes \"hi\"\n\tstop\n"

type harness struct {
	t       *testing.T
	ctx     context.Context
	cfg     *config.Config
	mem     *debuggee.Memory
	srv     *transport.Server
	sess    *Session
	client  *transport.Client
	sources *source.Resolver
	done    chan error
}

type setup struct {
	bufferSize int
	demo       bool
	promReg    *prometheus.Registry
}

// start runs a session over a pipe. The memory holds a = int[2] and b = str.
func start(t *testing.T, st setup) *harness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	cfg := config.Default()
	cfg.Interval = 1000
	cfg.LogPath = filepath.Join(t.TempDir(), "debug.log")
	if st.bufferSize > 0 {
		cfg.BufferSize = st.bufferSize
	}

	mem := debuggee.NewMemory()
	sources := source.NewResolver()
	sources.Register("main.hsp", mainSource)

	var opts []Option
	if st.demo {
		sources.Register(debuggee.DemoFile, debuggee.DemoSource)
		demo := debuggee.NewDemo(mem)
		mem.Stop()
		mem.Drain()
		opts = append(opts, WithController(demo), WithRunner(demo))
	} else {
		a := debuggee.NewVar("a", debuggee.TypeInt, 2)
		a.Elems[0] = debuggee.IntValue(1)
		a.Elems[1] = debuggee.IntValue(2)
		mem.AddVar(a)
		b := debuggee.NewVar("b", debuggee.TypeStr)
		b.Elems[0] = debuggee.StrValue("hi")
		mem.AddVar(b)
		mem.SetLocation(debuggee.Location{File: "main.hsp", Line: 2})
	}
	if st.promReg != nil {
		opts = append(opts, WithPrometheus(st.promReg, "livetree"))
	}

	srv := transport.NewServer("v-test", transport.WithBufferSize(cfg.BufferSize))
	t.Cleanup(func() { _ = srv.Close() })

	a, b := transport.Pipe()
	_, err := srv.Attach(a)
	require.NoError(t, err)
	client := transport.NewClient(b, cfg.BufferSize, "")
	t.Cleanup(func() { _ = client.Close() })

	sess, err := New(cfg, mem, srv, sources, opts...)
	require.NoError(t, err)

	h := &harness{
		t:       t,
		ctx:     ctx,
		cfg:     cfg,
		mem:     mem,
		srv:     srv,
		sess:    sess,
		client:  client,
		sources: sources,
		done:    make(chan error, 1),
	}
	go func() { h.done <- sess.Run(ctx) }()

	require.NoError(t, client.Hello(ctx))
	assert.Equal(t, protocol.Event(protocol.EvHelloOK, 0, 0, "v-test"), h.next())
	return h
}

func (h *harness) send(code protocol.Code, wparam int32) {
	h.t.Helper()
	require.NoError(h.t, h.client.Send(h.ctx, protocol.Command(code, wparam)))
}

func (h *harness) next() protocol.Message {
	h.t.Helper()
	m, err := h.client.Next(h.ctx)
	require.NoError(h.t, err)
	return m
}

func (h *harness) expect(code protocol.Code) protocol.Message {
	h.t.Helper()
	m := h.next()
	require.Equal(h.t, code, m.Code, "got %s", m)
	return m
}

func (h *harness) listUpdate() []diff.Delta {
	h.t.Helper()
	h.send(protocol.CmdListUpdate, 0)
	m := h.expect(protocol.EvListUpdateOK)
	deltas, err := diff.Decode(m.Text)
	require.NoError(h.t, err)
	return deltas
}

func (h *harness) toggle(objectID int) []diff.Delta {
	h.t.Helper()
	h.send(protocol.CmdListToggleExpand, int32(objectID))
	m := h.expect(protocol.EvListUpdateOK)
	deltas, err := diff.Decode(m.Text)
	require.NoError(h.t, err)
	return deltas
}

// reattach drops the client and says hello over a new one
func (h *harness) reattach() {
	h.t.Helper()
	require.NoError(h.t, h.client.Close())
	require.Eventually(h.t, func() bool { return !h.srv.Attached() }, 5*time.Second, 10*time.Millisecond)

	a, b := transport.Pipe()
	_, err := h.srv.Attach(a)
	require.NoError(h.t, err)
	client := transport.NewClient(b, h.cfg.BufferSize, "")
	h.t.Cleanup(func() { _ = client.Close() })
	h.client = client

	require.NoError(h.t, client.Hello(h.ctx))
	h.expect(protocol.EvHelloOK)
}

// apply plays deltas onto rows the way a viewer does
func apply(t *testing.T, rows []snapshot.Row, deltas []diff.Delta) []snapshot.Row {
	t.Helper()
	out, err := diff.Apply(rows, deltas)
	require.NoError(t, err)
	return out
}

func TestListUpdate(t *testing.T) {
	h := start(t, setup{})

	deltas := h.listUpdate()
	require.Len(t, deltas, 19)
	assert.Equal(t, "@", deltas[0].Row.Name)
	assert.Equal(t, "a", deltas[1].Row.Name)
	assert.Equal(t, 2, deltas[1].Row.ChildCount)

	b := deltas[2].Row
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, "(1):", b.Value)
	assert.Equal(t, 1, b.ChildCount)

	assert.Empty(t, h.listUpdate())

	t.Run("value change", func(t *testing.T) {
		require.NoError(t, h.sess.Post(h.ctx, func() {
			h.mem.SetSystemVar(debuggee.SysStat, debuggee.IntValue(7))
		}))
		deltas := h.listUpdate()
		require.Len(t, deltas, 1)
		assert.Equal(t, diff.Update, deltas[0].Kind)
		assert.Equal(t, "stat", deltas[0].Row.Name)
		assert.Equal(t, "7", deltas[0].Row.Value)
	})

	t.Run("element change", func(t *testing.T) {
		deltas := h.toggle(b.ObjectID)
		require.Len(t, deltas, 1)
		assert.Equal(t, snapshot.Row{ObjectID: deltas[0].Row.ObjectID, Depth: 2, Name: "(0)", Value: `"hi"`}, deltas[0].Row)
		assert.Equal(t, 3, deltas[0].Index)

		require.NoError(t, h.sess.Post(h.ctx, func() {
			h.mem.SetElement(1, 0, debuggee.StrValue("bye"))
		}))
		deltas = h.listUpdate()
		require.Len(t, deltas, 1)
		assert.Equal(t, diff.Update, deltas[0].Kind)
		assert.Equal(t, `"bye"`, deltas[0].Row.Value)
	})
}

func TestReattach(t *testing.T) {
	h := start(t, setup{})
	rows := apply(t, nil, h.listUpdate())
	rows = apply(t, rows, h.toggle(rows[1].ObjectID))
	require.Len(t, rows, 21)

	h.reattach()
	fresh := apply(t, nil, h.listUpdate())
	assert.Equal(t, rows, fresh)
	assert.Equal(t, h.sess.Registry().List(), fresh)

	assert.Empty(t, h.listUpdate())
}

func TestListResetCommand(t *testing.T) {
	h := start(t, setup{})
	rows := apply(t, nil, h.listUpdate())

	h.send(protocol.CmdListReset, 0)
	m := h.expect(protocol.EvListUpdateOK)
	deltas, err := diff.Decode(m.Text)
	require.NoError(t, err)
	assert.Equal(t, rows, apply(t, nil, deltas))
}

func TestDroppedListUpdate(t *testing.T) {
	h := start(t, setup{bufferSize: 4096})
	rows := apply(t, nil, h.listUpdate())

	require.NoError(t, h.sess.Post(h.ctx, func() {
		h.mem.SetSystemVar(debuggee.SysRefstr, debuggee.StrValue(strings.Repeat("x", 5000)))
		h.mem.SetSystemVar(debuggee.SysStat, debuggee.IntValue(3))
	}))
	h.send(protocol.CmdListUpdate, 0)
	h.send(protocol.CmdLocationUpdate, 0)
	h.expect(protocol.EvLocation)

	require.NoError(t, h.sess.Post(h.ctx, func() {
		h.mem.SetSystemVar(debuggee.SysRefstr, debuggee.StrValue("small"))
	}))
	rows = apply(t, rows, h.listUpdate())
	assert.Equal(t, h.sess.Registry().List(), rows)
	assert.Contains(t, rows, snapshot.Row{ObjectID: rowID(t, rows, "stat"), Depth: 1, Name: "stat", Value: "3"})
}

func rowID(t *testing.T, rows []snapshot.Row, name string) int {
	t.Helper()
	for _, r := range rows {
		if r.Name == name {
			return r.ObjectID
		}
	}
	t.Fatalf("no row named %q", name)
	return 0
}

func TestToggleExpand(t *testing.T) {
	h := start(t, setup{})
	rows := h.listUpdate()
	aID := int32(rows[1].Row.ObjectID)

	h.send(protocol.CmdListToggleExpand, aID)
	m := h.expect(protocol.EvListUpdateOK)
	deltas, err := diff.Decode(m.Text)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, diff.Insert, deltas[0].Kind)
	assert.Equal(t, 2, deltas[0].Index)
	assert.Equal(t, "(0)", deltas[0].Row.Name)
	assert.Equal(t, "1", deltas[0].Row.Value)

	t.Run("ignored without reply", func(t *testing.T) {
		h.send(protocol.CmdListToggleExpand, 0)
		h.send(protocol.CmdListToggleExpand, -3)
		h.send(protocol.CmdLocationUpdate, 0)
		h.expect(protocol.EvLocation)
	})

	t.Run("collapse", func(t *testing.T) {
		h.send(protocol.CmdListToggleExpand, aID)
		m := h.expect(protocol.EvListUpdateOK)
		deltas, err := diff.Decode(m.Text)
		require.NoError(t, err)
		require.Len(t, deltas, 2)
		assert.Equal(t, diff.Remove, deltas[0].Kind)
		assert.Equal(t, diff.Remove, deltas[1].Kind)
	})
}

func TestDetails(t *testing.T) {
	h := start(t, setup{})
	rows := h.listUpdate()
	aID := int32(rows[1].Row.ObjectID)

	h.send(protocol.CmdListDetails, aID)
	m := h.expect(protocol.EvListDetailsOK)
	assert.Equal(t, aID, m.WParam)
	assert.True(t, strings.HasPrefix(m.Text, "[a]\n"), m.Text)

	h.send(protocol.CmdListDetails, 9999)
	assert.Equal(t, protocol.Event(protocol.EvListDetailsOK, 0, 0, ""), h.next())
}

func TestLocationAndSource(t *testing.T) {
	h := start(t, setup{})

	h.send(protocol.CmdLocationUpdate, 0)
	m := h.expect(protocol.EvLocation)
	fileID := m.WParam
	assert.Equal(t, int32(h.sources.FileID("main.hsp")), fileID)
	assert.Equal(t, int32(2), m.LParam)

	h.send(protocol.CmdSource, fileID)
	m = h.expect(protocol.EvSourcePath)
	assert.Equal(t, fileID, m.WParam)
	assert.Equal(t, "main.hsp", filepath.Base(m.Text))
	m = h.expect(protocol.EvSourceCode)
	assert.Equal(t, mainSource, m.Text)

	t.Run("unknown file", func(t *testing.T) {
		h.send(protocol.CmdSource, 77)
		h.send(protocol.CmdLocationUpdate, 0)
		h.expect(protocol.EvLocation)
	})
}

func TestOversizedEventDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := start(t, setup{bufferSize: 64, promReg: reg})
	fileID := h.sources.Register("big.hsp", strings.Repeat("x", 100))

	h.send(protocol.CmdSource, int32(fileID))
	h.expect(protocol.EvSourcePath)

	h.send(protocol.CmdLocationUpdate, 0)
	h.expect(protocol.EvLocation)

	assert.Equal(t, float64(1), testutil.ToFloat64(h.sess.metrics.commands.WithLabelValues(protocol.CmdSource.String())))
	assert.Equal(t, 2, testutil.CollectAndCount(h.sess.metrics.commands))
}

func TestLogMessages(t *testing.T) {
	h := start(t, setup{})

	require.NoError(t, h.sess.Post(h.ctx, func() {
		h.mem.AppendLog("first")
		h.mem.AppendLog("second\n")
	}))
	assert.Equal(t, protocol.Event(protocol.EvLogMessage, 0, 0, "first\n"), h.next())
	assert.Equal(t, protocol.Event(protocol.EvLogMessage, 0, 0, "second\n"), h.next())
}

func TestTerminate(t *testing.T) {
	h := start(t, setup{})
	require.NoError(t, h.sess.Post(h.ctx, func() {
		h.mem.AppendLog("bye")
	}))
	h.expect(protocol.EvLogMessage)

	h.send(protocol.CmdTerminate, 0)
	h.expect(protocol.EvShutdown)

	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-h.ctx.Done():
		t.Fatal("session did not stop")
	}

	data, err := os.ReadFile(h.cfg.LogPath)
	require.NoError(t, err)
	assert.Equal(t, "bye\n", string(data))
}

func TestStepping(t *testing.T) {
	h := start(t, setup{demo: true})

	h.send(protocol.CmdStepIn, 0)
	m := h.expect(protocol.EvStopped)
	assert.Equal(t, int32(h.sources.FileID(debuggee.DemoFile)), m.WParam)
	assert.Equal(t, int32(6), m.LParam)

	h.send(protocol.CmdStepIn, 0)
	assert.Equal(t, int32(7), h.expect(protocol.EvStopped).LParam)

	h.send(protocol.CmdLocationUpdate, 0)
	assert.Equal(t, int32(7), h.expect(protocol.EvLocation).LParam)

	deltas := h.listUpdate()
	var names []string
	for _, d := range deltas {
		names = append(names, d.Row.Name)
	}
	assert.Contains(t, names, "target")
	assert.Contains(t, names, "counter")

	t.Run("pause", func(t *testing.T) {
		h.send(protocol.CmdStepContinue, 0)
		h.send(protocol.CmdStepPause, 0)
		h.expect(protocol.EvStopped)
	})
}

func TestNewNeedsController(t *testing.T) {
	cfg := config.Default()
	srv := transport.NewServer("v-test")
	t.Cleanup(func() { _ = srv.Close() })

	_, err := New(cfg, notifierOnly{debuggee.NewMemory()}, srv, source.NewResolver())
	assert.Error(t, err)
}

type notifierOnly struct {
	*debuggee.Memory
}

// hide the controller methods
func (notifierOnly) SetMode() {}
