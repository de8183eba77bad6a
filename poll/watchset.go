package poll

import (
	"github.com/OpenListTeam/wazero-sockpoll/handle"
)

type entry struct {
	fd int
	h  handle.Handle
}

// watchSet is the registry of one direction. entries is dense, index maps
// every watched descriptor to its slot, and desired mirrors the set of
// watched descriptors bit for bit.
type watchSet struct {
	entries    []entry
	index      descriptorIndex
	desired    FdSet
	result     FdSet
	cursor     int // next slot to visit
	maxWatched int // 1 + highest watched descriptor, 0 when empty

	increment int
	limit     int
}

func newWatchSet(o *options) watchSet {
	start := o.start
	if o.limit > 0 && start > o.limit {
		start = o.limit
	}
	return watchSet{
		entries:   make([]entry, 0, start),
		index:     newDescriptorIndex(start),
		increment: o.increment,
		limit:     o.limit,
	}
}

func (w *watchSet) add(fd int, h handle.Handle) error {
	if fd < 0 || fd >= MaxDescriptor {
		return ErrOutOfRange
	}
	if _, ok := w.index.lookup(fd); ok {
		return nil
	}
	n := len(w.entries)
	if n >= MaxDescriptor {
		return ErrOutOfRange
	}
	if n == cap(w.entries) {
		if err := w.grow(); err != nil {
			return err
		}
	}
	w.index.insertIfAbsent(fd, n)
	w.entries = append(w.entries, entry{fd: fd, h: retain(h)})
	w.desired.Set(fd)
	if fd >= w.maxWatched {
		w.maxWatched = fd + 1
	}
	return nil
}

func (w *watchSet) grow() error {
	size := cap(w.entries) + w.increment
	if w.limit > 0 && size > w.limit {
		size = w.limit
	}
	if size <= cap(w.entries) {
		return ErrOutOfMemory
	}
	grown := make([]entry, len(w.entries), size)
	copy(grown, w.entries)
	w.entries = grown
	return nil
}

func (w *watchSet) remove(fd int) {
	pos, ok := w.index.lookup(fd)
	if !ok {
		return
	}
	h := w.entries[pos].h
	last := len(w.entries) - 1

	if pos < w.cursor {
		// pos was already visited: fill it with the most recently visited
		// entry and pull the last entry back under the cursor
		prev := w.cursor - 1
		w.move(prev, pos)
		if prev != last {
			w.move(last, prev)
		}
		w.cursor = prev
	} else if pos != last {
		w.move(last, pos)
	}

	w.entries[last] = entry{}
	w.entries = w.entries[:last]
	w.index.remove(fd)
	w.desired.Clear(fd)
	w.result.Clear(fd)
	if fd+1 == w.maxWatched {
		w.maxWatched = w.desired.highest(w.maxWatched) + 1
	}
	release(h)
}

func (w *watchSet) move(from, to int) {
	if from == to {
		return
	}
	w.entries[to] = w.entries[from]
	w.index.rebind(w.entries[to].fd, to)
}

func (w *watchSet) contains(fd int) bool {
	_, ok := w.index.lookup(fd)
	return ok
}

func (w *watchSet) isReady(fd int) bool {
	return w.contains(fd) && w.result.IsSet(fd)
}

func (w *watchSet) len() int {
	return len(w.entries)
}

func (w *watchSet) resetCursor() {
	w.cursor = 0
}

func (w *watchSet) hasNextWatched() bool {
	return w.cursor < len(w.entries)
}

func (w *watchSet) nextWatched() (handle.Handle, bool) {
	if !w.hasNextWatched() {
		return nil, false
	}
	h := w.entries[w.cursor].h
	w.cursor++
	return h, true
}

// hasNextReady moves the cursor onto the next entry found ready. Once
// remaining is exhausted the rest of the array is skipped.
func (w *watchSet) hasNextReady(remaining int) bool {
	if remaining <= 0 {
		w.cursor = len(w.entries)
		return false
	}
	for w.cursor < len(w.entries) && !w.result.IsSet(w.entries[w.cursor].fd) {
		w.cursor++
	}
	return w.cursor < len(w.entries)
}

func (w *watchSet) nextReady(remaining int) (handle.Handle, bool) {
	if !w.hasNextReady(remaining) {
		return nil, false
	}
	h := w.entries[w.cursor].h
	w.cursor++
	return h, true
}

func (w *watchSet) handles() []handle.Handle {
	hs := make([]handle.Handle, len(w.entries))
	for i, e := range w.entries {
		hs[i] = e.h
	}
	return hs
}

// clear empties the set and releases every handle it held.
func (w *watchSet) clear() {
	old := w.entries
	w.entries = w.entries[:0:cap(w.entries)]
	w.index = newDescriptorIndex(cap(old))
	w.desired.Zero()
	w.result.Zero()
	w.cursor = 0
	w.maxWatched = 0
	for i := range old {
		release(old[i].h)
		old[i] = entry{}
	}
}

// clone returns a deep copy that holds its own reference to every handle.
func (w *watchSet) clone() watchSet {
	c := *w
	c.entries = make([]entry, len(w.entries), cap(w.entries))
	for i, e := range w.entries {
		c.entries[i] = entry{fd: e.fd, h: retain(e.h)}
	}
	c.index = w.index.clone()
	return c
}

func retain(h handle.Handle) handle.Handle {
	if h == nil {
		return nil
	}
	return h.Retain()
}

func release(h handle.Handle) {
	if h != nil {
		h.Release()
	}
}
