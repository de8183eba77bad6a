package poll

import (
	"time"

	"github.com/OpenListTeam/wazero-sockpoll/handle"
)

// Engine watches descriptors for read and write readiness.
//
// The zero value is not usable, create engines with New.
type Engine struct {
	read  watchSet
	write watchSet

	mode      mode
	remaining int // findings left to hand out in the current findings iteration
	ready     int // ready count of the last successful poll

	opts options
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	o := resolveOptions(opts)
	return &Engine{
		read:  newWatchSet(&o),
		write: newWatchSet(&o),
		opts:  o,
	}
}

// AddCheck watches fd in the given direction, storing h as the handle
// returned for it by the iterators. The engine retains h once for every
// direction it is registered in. A descriptor that is already watched in a
// direction keeps the handle it was first registered with.
//
// For InOut the read registration is kept even if the write registration
// fails.
func (e *Engine) AddCheck(fd int, dir Direction, h handle.Handle) error {
	if !dir.Valid() {
		return opError("add-check", fd, ErrOutOfRange)
	}
	if dir.hasIn() {
		if err := e.read.add(fd, h); err != nil {
			return opError("add-check", fd, err)
		}
	}
	if dir.hasOut() {
		if err := e.write.add(fd, h); err != nil {
			return opError("add-check", fd, err)
		}
	}
	return nil
}

// RemoveCheck stops watching fd in the given direction and releases the
// handle stored for it. Descriptors that are not watched are ignored.
func (e *Engine) RemoveCheck(fd int, dir Direction) error {
	if !dir.Valid() {
		return opError("remove-check", fd, ErrOutOfRange)
	}
	if dir.hasIn() {
		e.read.remove(fd)
	}
	if dir.hasOut() {
		e.write.remove(fd)
	}
	return nil
}

// Check reports the directions fd is watched in.
func (e *Engine) Check(fd int) Direction {
	return directionOf(e.read.contains(fd), e.write.contains(fd))
}

// Finding reports the directions fd was found ready in by the last poll.
func (e *Engine) Finding(fd int) Direction {
	return directionOf(e.read.isReady(fd), e.write.isReady(fd))
}

// IterChecks starts an iteration over the handles watched in dir.
// Nothing ends any running iteration.
func (e *Engine) IterChecks(dir Direction) error {
	if !dir.Valid() {
		return opError("iter-checks", -1, ErrOutOfRange)
	}
	e.mode = watchingMode(dir)
	e.resetCursors(dir)
	return nil
}

// IterFindings starts an iteration over the handles found ready in dir by
// the last poll. Nothing ends any running iteration.
func (e *Engine) IterFindings(dir Direction) error {
	if !dir.Valid() {
		return opError("iter-findings", -1, ErrOutOfRange)
	}
	e.mode = findingsMode(dir)
	e.resetCursors(dir)
	e.remaining = e.ready
	return nil
}

func (e *Engine) resetCursors(dir Direction) {
	if dir.hasIn() {
		e.read.resetCursor()
	}
	if dir.hasOut() {
		e.write.resetCursor()
	}
}

// HasNext reports whether the running iteration has another handle.
func (e *Engine) HasNext() bool {
	switch e.mode {
	case modeWatchingIn:
		return e.read.hasNextWatched()
	case modeWatchingOut:
		return e.write.hasNextWatched()
	case modeWatchingInOut:
		return e.read.hasNextWatched() || e.write.hasNextWatched()
	case modeFindingsIn:
		return e.read.hasNextReady(e.remaining)
	case modeFindingsOut:
		return e.write.hasNextReady(e.remaining)
	case modeFindingsInOut:
		return e.read.hasNextReady(e.remaining) || e.write.hasNextReady(e.remaining)
	default:
		return false
	}
}

// NextHandle advances the running iteration and returns its handle, or def
// once the iteration is exhausted. InOut iterations hand out the read
// direction before the write direction, callers must not rely on that.
//
// The returned handle is lent: it stays valid while the registration that
// produced it exists, retain it to keep it longer.
func (e *Engine) NextHandle(def handle.Handle) handle.Handle {
	var (
		h  handle.Handle
		ok bool
	)
	switch e.mode {
	case modeWatchingIn:
		h, ok = e.read.nextWatched()
	case modeWatchingOut:
		h, ok = e.write.nextWatched()
	case modeWatchingInOut:
		if h, ok = e.read.nextWatched(); !ok {
			h, ok = e.write.nextWatched()
		}
	case modeFindingsIn:
		h, ok = e.read.nextReady(e.remaining)
	case modeFindingsOut:
		h, ok = e.write.nextReady(e.remaining)
	case modeFindingsInOut:
		if h, ok = e.read.nextReady(e.remaining); !ok {
			h, ok = e.write.nextReady(e.remaining)
		}
	}
	if !ok {
		return def
	}
	if e.mode.findings() && e.remaining > 0 {
		e.remaining--
	}
	return h
}

// Poll blocks until at least one watched descriptor is ready.
func (e *Engine) Poll() error {
	return e.PollTimeout(-1)
}

// PollTimeout waits at most d for a watched descriptor to become ready.
// A negative d blocks without limit, zero only samples the current state.
// Running out of time is not an error, the poll then finds nothing.
//
// On failure the registrations and the findings of the previous poll are
// left as they were, the error wraps ErrIO.
func (e *Engine) PollTimeout(d time.Duration) error {
	nfds := max(e.read.maxWatched, e.write.maxWatched)
	rd, wr := e.read.desired, e.write.desired
	n, err := e.opts.bridge.Wait(nfds, &rd, &wr, d)
	if err != nil {
		e.opts.logger.Warning().
			Int("nfds", nfds).
			Dur("timeout", d).
			Err(err).
			Log("readiness wait failed")
		return ioError("poll", err)
	}
	e.read.result, e.write.result = rd, wr
	e.read.resetCursor()
	e.write.resetCursor()
	e.ready = n
	e.remaining = n
	e.opts.logger.Debug().
		Int("nfds", nfds).
		Int("ready", n).
		Log("poll")
	return nil
}

// ReadyCount returns the number of findings of the last successful poll,
// counted once per direction.
func (e *Engine) ReadyCount() int {
	return e.ready
}

// Len returns the number of registrations in dir, InOut adds both
// directions up.
func (e *Engine) Len(dir Direction) int {
	var n int
	if dir.hasIn() {
		n += e.read.len()
	}
	if dir.hasOut() {
		n += e.write.len()
	}
	return n
}

// Files returns every watched handle, read registrations first. The
// handles are lent as with NextHandle.
func (e *Engine) Files() []handle.Handle {
	return append(e.read.handles(), e.write.handles()...)
}

// Clear drops every registration and releases their handles.
func (e *Engine) Clear() {
	e.read.clear()
	e.write.clear()
	e.mode = modeEmpty
	e.remaining = 0
	e.ready = 0
}

// CopyFrom replaces the contents of e with a deep copy of src. Every
// copied registration retains its handle, the replaced registrations of e
// are released afterwards.
func (e *Engine) CopyFrom(src *Engine) {
	if e == src {
		return
	}
	read, write := src.read.clone(), src.write.clone()
	read.increment, read.limit = e.opts.increment, e.opts.limit
	write.increment, write.limit = e.opts.increment, e.opts.limit
	e.read.clear()
	e.write.clear()
	e.read, e.write = read, write
	e.mode = src.mode
	e.remaining = src.remaining
	e.ready = src.ready
}

// Clone returns a deep copy of e sharing its configuration.
func (e *Engine) Clone() *Engine {
	c := &Engine{opts: e.opts}
	c.CopyFrom(e)
	return c
}

// Destroy releases every handle and drops the storage of both watch sets.
// The engine is empty afterwards and may be reused.
func (e *Engine) Destroy() {
	e.Clear()
	e.read.entries, e.write.entries = nil, nil
	e.read.index, e.write.index = newDescriptorIndex(0), newDescriptorIndex(0)
}
