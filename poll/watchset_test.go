package poll

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWatchSet(opts ...Option) watchSet {
	o := resolveOptions(append([]Option{WithBridge(NoopBridge{})}, opts...))
	return newWatchSet(&o)
}

func TestWatchSetAddIdempotent(t *testing.T) {
	w := newTestWatchSet()
	fs := files(5, 5)

	require.NoError(t, w.add(5, fs[0]))
	require.NoError(t, w.add(5, fs[1]))

	require.Equal(t, 1, w.len())
	require.Same(t, fs[0], w.entries[0].h)
	require.Equal(t, 1, fs[0].held())
	require.Zero(t, fs[1].retains)
	checkWatchSet(t, &w)
}

func TestWatchSetAddOutOfRange(t *testing.T) {
	w := newTestWatchSet()
	f := &fakeFile{}

	require.ErrorIs(t, w.add(-1, f), ErrOutOfRange)
	require.ErrorIs(t, w.add(MaxDescriptor, f), ErrOutOfRange)
	require.NoError(t, w.add(MaxDescriptor-1, f))
	require.Equal(t, MaxDescriptor, w.maxWatched)
	require.Equal(t, 1, f.held())
}

func TestWatchSetGrowth(t *testing.T) {
	w := newTestWatchSet(WithTableSize(2, 3))
	require.Equal(t, 2, cap(w.entries))

	for fd := 0; fd < 6; fd++ {
		require.NoError(t, w.add(fd, nil))
	}
	require.Equal(t, 8, cap(w.entries))
	checkWatchSet(t, &w)
}

func TestWatchSetCapacityLimit(t *testing.T) {
	w := newTestWatchSet(WithTableSize(2, 4), WithCapacityLimit(3))
	fs := files(0, 1, 2, 3)
	for _, f := range fs[:3] {
		require.NoError(t, w.add(f.fd, f))
	}
	require.Equal(t, 3, cap(w.entries))

	require.ErrorIs(t, w.add(3, fs[3]), ErrOutOfMemory)
	require.Equal(t, 3, w.len())
	require.False(t, w.contains(3))
	require.False(t, w.desired.IsSet(3))
	require.Zero(t, fs[3].retains)
	checkWatchSet(t, &w)
}

func TestWatchSetRemove(t *testing.T) {
	w := newTestWatchSet()
	fs := files(4, 9, 2)
	for _, f := range fs {
		require.NoError(t, w.add(f.fd, f))
	}
	require.Equal(t, 10, w.maxWatched)

	w.remove(4)
	require.Equal(t, []int{2, 9}, []int{w.entries[0].fd, w.entries[1].fd})
	require.Equal(t, 0, fs[0].held())
	checkWatchSet(t, &w)

	w.remove(9)
	require.Equal(t, 3, w.maxWatched)
	checkWatchSet(t, &w)

	w.remove(9)
	require.Equal(t, 1, fs[1].releases)

	w.remove(2)
	require.Zero(t, w.maxWatched)
	require.Zero(t, w.len())
	checkWatchSet(t, &w)
}

func TestWatchSetRandomOps(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	w := newTestWatchSet(WithTableSize(1, 2))
	fs := make(map[int]*fakeFile)

	for i := 0; i < 5000; i++ {
		fd := rng.IntN(48)
		f, ok := fs[fd]
		if !ok {
			f = &fakeFile{fd: fd}
			fs[fd] = f
		}
		if rng.IntN(3) == 0 {
			w.remove(fd)
		} else {
			require.NoError(t, w.add(fd, f))
		}
		if i%97 == 0 {
			checkWatchSet(t, &w)
		}
	}
	checkWatchSet(t, &w)

	for fd, f := range fs {
		if w.contains(fd) {
			require.Equal(t, 1, f.held(), "fd %d", fd)
		} else {
			require.Zero(t, f.held(), "fd %d", fd)
		}
	}
}

func TestWatchSetRemoveCurrentDuringIteration(t *testing.T) {
	w := newTestWatchSet()
	for _, f := range files(0, 1, 2, 3, 4) {
		require.NoError(t, w.add(f.fd, f))
	}

	var seen []int
	w.resetCursor()
	for w.hasNextWatched() {
		h, ok := w.nextWatched()
		require.True(t, ok)
		fd := fdOf(h)
		seen = append(seen, fd)
		if fd%2 == 0 {
			w.remove(fd)
		}
	}
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4}, seen)
	require.Equal(t, 2, w.len())
	checkWatchSet(t, &w)
}

func TestWatchSetRemoveDuringIterationRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for round := 0; round < 300; round++ {
		w := newTestWatchSet(WithTableSize(4, 4))
		n := 1 + rng.IntN(24)
		for fd := 0; fd < n; fd++ {
			require.NoError(t, w.add(fd, &fakeFile{fd: fd}))
		}

		visited := make(map[int]int)
		removed := make(map[int]bool)
		w.resetCursor()
		for {
			h, ok := w.nextWatched()
			if !ok {
				break
			}
			visited[fdOf(h)]++
			for rng.IntN(3) == 0 && w.len() > 0 {
				victim := w.entries[rng.IntN(w.len())].fd
				w.remove(victim)
				removed[victim] = true
			}
		}

		for fd := 0; fd < n; fd++ {
			require.LessOrEqual(t, visited[fd], 1, "round %d fd %d visited twice", round, fd)
			if !removed[fd] {
				require.Equal(t, 1, visited[fd], "round %d fd %d skipped", round, fd)
			}
		}
		checkWatchSet(t, &w)
	}
}

func TestWatchSetReadyIteration(t *testing.T) {
	w := newTestWatchSet()
	for _, f := range files(1, 2, 3, 4) {
		require.NoError(t, w.add(f.fd, f))
	}
	w.result.Set(2)
	w.result.Set(4)

	require.True(t, w.isReady(2))
	require.False(t, w.isReady(1))
	require.False(t, w.isReady(40))

	w.resetCursor()
	var got []int
	remaining := 2
	for w.hasNextReady(remaining) {
		h, ok := w.nextReady(remaining)
		require.True(t, ok)
		got = append(got, fdOf(h))
		remaining--
	}
	require.Equal(t, []int{2, 4}, got)

	// an exhausted count stops the iteration early
	w.resetCursor()
	_, ok := w.nextReady(0)
	require.False(t, ok)
	require.Equal(t, w.len(), w.cursor)
}

func TestWatchSetCloneAndClear(t *testing.T) {
	w := newTestWatchSet()
	fs := files(3, 8)
	for _, f := range fs {
		require.NoError(t, w.add(f.fd, f))
	}
	c := w.clone()
	require.Equal(t, 2, fs[0].held())

	c.remove(3)
	require.True(t, w.contains(3))
	require.Equal(t, 1, fs[0].held())
	checkWatchSet(t, &w)
	checkWatchSet(t, &c)

	w.clear()
	require.Zero(t, w.len())
	require.Zero(t, fs[0].held())
	require.Equal(t, 1, fs[1].held())
	checkWatchSet(t, &w)
}
