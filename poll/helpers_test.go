package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/wazero-sockpoll/handle"
)

// fakeFile counts the references the engine takes on it.
type fakeFile struct {
	fd       int
	retains  int
	releases int
}

func (f *fakeFile) Retain() handle.Handle {
	f.retains++
	return f
}

func (f *fakeFile) Release() {
	f.releases++
}

func (f *fakeFile) held() int {
	return f.retains - f.releases
}

func files(fds ...int) []*fakeFile {
	fs := make([]*fakeFile, len(fds))
	for i, fd := range fds {
		fs[i] = &fakeFile{fd: fd}
	}
	return fs
}

func fdOf(h handle.Handle) int {
	if h == nil {
		return -1
	}
	return h.(*fakeFile).fd
}

// scriptedBridge reports the listed descriptors as ready, as far as they are
// being waited for.
type scriptedBridge struct {
	read, write []int
	err         error

	calls   int
	nfds    int
	timeout time.Duration
}

func (b *scriptedBridge) Wait(nfds int, read, write *FdSet, timeout time.Duration) (int, error) {
	b.calls++
	b.nfds = nfds
	b.timeout = timeout
	if b.err != nil {
		return 0, b.err
	}
	var rd, wr FdSet
	var n int
	for _, fd := range b.read {
		if read.IsSet(fd) {
			rd.Set(fd)
			n++
		}
	}
	for _, fd := range b.write {
		if write.IsSet(fd) {
			wr.Set(fd)
			n++
		}
	}
	*read, *write = rd, wr
	return n, nil
}

func checkWatchSet(t *testing.T, w *watchSet) {
	t.Helper()
	require.Equal(t, len(w.entries), w.index.len())
	require.Equal(t, len(w.entries), w.desired.Count())
	highest := -1
	for i, e := range w.entries {
		slot, ok := w.index.lookup(e.fd)
		require.True(t, ok, "fd %d not indexed", e.fd)
		require.Equal(t, i, slot, "fd %d", e.fd)
		require.True(t, w.desired.IsSet(e.fd), "fd %d not desired", e.fd)
		highest = max(highest, e.fd)
	}
	require.Equal(t, highest+1, w.maxWatched)
}

func drain(e *Engine) []int {
	var fds []int
	for e.HasNext() {
		fds = append(fds, fdOf(e.NextHandle(nil)))
	}
	return fds
}
