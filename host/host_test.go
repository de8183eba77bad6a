//go:build unix

package host

import (
	"bytes"
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/OpenListTeam/wazero-sockpoll/internal/logging"
	"github.com/OpenListTeam/wazero-sockpoll/internal/wasmtest"
	"github.com/OpenListTeam/wazero-sockpoll/manager/sockets"
	"github.com/OpenListTeam/wazero-sockpoll/poll"
)

type echoImpl struct{}

func (echoImpl) Name() string       { return "test:echo" }
func (echoImpl) Versions() []string { return []string{"1.0", "1.1"} }
func (echoImpl) Instantiate(_ context.Context, _ *Host, b wazero.HostModuleBuilder) error {
	b.NewFunctionBuilder().WithFunc(func(_ context.Context, v uint32) uint32 { return v }).Export("echo")
	return nil
}

func TestInstantiate(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var buf bytes.Buffer
	h := NewHost(WithLogger(logging.New(&buf, logiface.LevelInformational)))
	h.AddImplementation(echoImpl{})
	require.NoError(t, h.Instantiate(ctx, r))

	i32 := []api.ValueType{api.ValueTypeI32}
	for _, name := range []string{"test:echo@1.0", "test:echo@1.1"} {
		require.NotNil(t, r.Module(name), name)
		guest, err := r.InstantiateWithConfig(ctx, wasmtest.Reexport(name, "echo", i32, i32),
			wazero.NewModuleConfig().WithName("guest-"+name))
		require.NoError(t, err)
		res, err := guest.ExportedFunction("echo").Call(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, []uint64{42}, res)
		require.Contains(t, buf.String(), `"module":"`+name+`"`)
	}
}

func TestFileReferences(t *testing.T) {
	h := NewHost()
	a, b, err := sockets.Pair()
	require.NoError(t, err)
	defer b.Close()

	id := h.AddFile(a)
	ref, ok := h.File(id)
	require.True(t, ok)
	require.Equal(t, id, ref.Value().ID)

	_, p := h.NewPoller()
	p.Do(func(e *poll.Engine) {
		require.NoError(t, e.AddCheck(a.Fd, poll.InOut, ref))
		f, ok := FileOf(e.Files()[0])
		require.True(t, ok)
		require.Same(t, ref.Value(), f)
	})
	require.EqualValues(t, 3, ref.Refs())

	require.True(t, h.CloseFile(id))
	require.False(t, a.Closed())
	_, ok = h.OpenFile(id)
	require.False(t, ok)
	_, ok = h.File(id)
	require.True(t, ok)

	h.Close()
	require.True(t, a.Closed())
	require.Zero(t, h.Pollers().Len())
	require.Zero(t, h.Files().Len())
}

func TestCloseFileWithoutEngines(t *testing.T) {
	h := NewHost()
	defer h.Close()
	a, b, err := sockets.Pair()
	require.NoError(t, err)
	defer b.Close()

	id := h.AddFile(a)
	require.True(t, h.CloseFile(id))
	require.True(t, a.Closed())
	require.Zero(t, h.Files().Len())
	require.False(t, h.CloseFile(id))
}

func TestHostCloseReleasesOpenFiles(t *testing.T) {
	h := NewHost()
	a, b, err := sockets.Pair()
	require.NoError(t, err)
	h.AddFile(a)
	h.AddFile(b)

	h.Close()
	require.True(t, a.Closed())
	require.True(t, b.Closed())
}

func TestPollerWaitDoesNotBlockDestroy(t *testing.T) {
	h := NewHost()
	defer h.Close()
	a, b, err := sockets.Pair()
	require.NoError(t, err)
	id := h.AddFile(a)
	h.AddFile(b)
	ref, _ := h.File(id)

	pid, p := h.NewPoller()
	p.Do(func(e *poll.Engine) {
		require.NoError(t, e.AddCheck(a.Fd, poll.In, ref))
	})

	done := make(chan error, 1)
	go func() { done <- p.Poll(-1) }()

	// the wait holds its own references, so the socket stays open
	require.Eventually(t, func() bool { return ref.Refs() == 3 }, time.Second, time.Millisecond)
	require.True(t, h.Pollers().Remove(pid))
	require.True(t, h.CloseFile(id))
	require.False(t, a.Closed())

	_, err = b.Write([]byte("x"))
	require.NoError(t, err)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not return")
	}
	require.True(t, a.Closed())
	p.Do(func(e *poll.Engine) {
		require.Zero(t, e.ReadyCount())
	})
}

func TestPollerPollReflectsLiveRegistrations(t *testing.T) {
	h := NewHost()
	defer h.Close()
	a, b, err := sockets.Pair()
	require.NoError(t, err)
	id := h.AddFile(a)
	h.AddFile(b)
	ref, _ := h.File(id)

	_, p := h.NewPoller()
	p.Do(func(e *poll.Engine) {
		require.NoError(t, e.AddCheck(a.Fd, poll.Out, ref))
	})
	require.NoError(t, p.Poll(time.Second))
	p.Do(func(e *poll.Engine) {
		require.Equal(t, 1, e.ReadyCount())
		require.Equal(t, poll.Out, e.Finding(a.Fd))
	})
	require.EqualValues(t, 2, ref.Refs())
}

func TestPollerOptions(t *testing.T) {
	b := poll.BridgeFunc(func(int, *poll.FdSet, *poll.FdSet, time.Duration) (int, error) {
		return 0, syscall.EIO
	})
	h := NewHost(WithPollOptions(poll.WithBridge(b)))
	defer h.Close()

	id, p := h.NewPoller()
	got, ok := h.Pollers().Get(id)
	require.True(t, ok)
	require.Same(t, p, got)
	require.ErrorIs(t, p.Poll(0), poll.ErrIO)

	_, clone := h.ClonePoller(p)
	require.ErrorIs(t, clone.Poll(0), syscall.EIO)
}

func TestFileOf(t *testing.T) {
	_, ok := FileOf(nil)
	require.False(t, ok)
}
