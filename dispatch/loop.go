// Package dispatch runs callbacks for socket readiness on top of a single
// poll.Engine.
//
// A Loop is confined to the goroutine that calls Run. Watch and Unwatch may
// be called before Run starts and from inside callbacks, never concurrently
// with Run.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/eapache/queue"

	"github.com/OpenListTeam/wazero-sockpoll/handle"
	"github.com/OpenListTeam/wazero-sockpoll/internal/logging"
	"github.com/OpenListTeam/wazero-sockpoll/poll"
)

const defaultTick = 100 * time.Millisecond

// Callback handles one finding: fd was found ready in dir (In or Out).
type Callback func(fd int, dir poll.Direction)

type watch struct {
	fd      int
	dir     poll.Direction
	cb      Callback
	stopped bool
}

type watchKey struct {
	fd  int
	dir poll.Direction
}

// Loop polls one engine and dispatches its findings.
type Loop struct {
	engine  *poll.Engine
	watches map[watchKey]*handle.Ref[*watch]
	pending *queue.Queue

	tick       time.Duration
	logger     *logging.Logger
	engineOpts []poll.Option
}

// Option configures a Loop.
type Option func(*Loop)

// WithTick bounds every wait of Run, so cancellation of its context is
// noticed within d.
func WithTick(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithLogger sets the logger of the loop and its engine.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithEngineOptions passes options to the underlying engine.
func WithEngineOptions(opts ...poll.Option) Option {
	return func(l *Loop) {
		l.engineOpts = append(l.engineOpts, opts...)
	}
}

// New creates a loop with no watches.
func New(opts ...Option) *Loop {
	l := &Loop{
		watches: make(map[watchKey]*handle.Ref[*watch]),
		pending: queue.New(),
		tick:    defaultTick,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.engine = poll.New(append([]poll.Option{poll.WithLogger(l.logger)}, l.engineOpts...)...)
	return l
}

// Watch calls cb whenever fd is found ready in one of the directions of
// dir. Watching a direction again replaces its callback.
func (l *Loop) Watch(fd int, dir poll.Direction, cb Callback) error {
	if !dir.Valid() {
		return &poll.Error{Op: "watch", Fd: fd, Err: poll.ErrOutOfRange}
	}
	for _, d := range []poll.Direction{poll.In, poll.Out} {
		if dir&d == 0 {
			continue
		}
		l.unwatch(fd, d)
		ref := handle.New(&watch{fd: fd, dir: d, cb: cb}, nil)
		err := l.engine.AddCheck(fd, d, ref)
		if err == nil {
			l.watches[watchKey{fd, d}] = ref.Retain().(*handle.Ref[*watch])
		}
		ref.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// Unwatch stops watching fd in the directions of dir. Findings of the
// current round that were not dispatched yet are dropped.
func (l *Loop) Unwatch(fd int, dir poll.Direction) error {
	if !dir.Valid() {
		return &poll.Error{Op: "unwatch", Fd: fd, Err: poll.ErrOutOfRange}
	}
	if dir&poll.In != 0 {
		l.unwatch(fd, poll.In)
	}
	if dir&poll.Out != 0 {
		l.unwatch(fd, poll.Out)
	}
	return nil
}

func (l *Loop) unwatch(fd int, dir poll.Direction) {
	key := watchKey{fd, dir}
	ref, ok := l.watches[key]
	if !ok {
		return
	}
	delete(l.watches, key)
	ref.Value().stopped = true
	_ = l.engine.RemoveCheck(fd, dir)
	ref.Release()
}

// Len returns the number of watched (descriptor, direction) pairs.
func (l *Loop) Len() int {
	return len(l.watches)
}

// Run polls and dispatches until ctx is done or a poll fails.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.RunOnce(l.tick); err != nil {
			return err
		}
	}
}

// RunOnce waits at most timeout for findings and runs their callbacks,
// read findings first. It returns the number of callbacks run.
func (l *Loop) RunOnce(timeout time.Duration) (int, error) {
	if err := l.engine.PollTimeout(timeout); err != nil {
		return 0, err
	}
	for _, dir := range []poll.Direction{poll.In, poll.Out} {
		_ = l.engine.IterFindings(dir)
		for l.engine.HasNext() {
			h := l.engine.NextHandle(nil)
			if h == nil {
				continue
			}
			l.pending.Add(h.Retain())
		}
	}

	var n int
	for l.pending.Length() > 0 {
		ref := l.pending.Remove().(*handle.Ref[*watch])
		if w := ref.Value(); !w.stopped {
			l.invoke(w)
			n++
		}
		ref.Release()
	}
	return n, nil
}

func (l *Loop) invoke(w *watch) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Err().
				Int("fd", w.fd).
				Str("dir", w.dir.String()).
				Str("panic", fmt.Sprint(r)).
				Log("callback panicked")
		}
	}()
	w.cb(w.fd, w.dir)
}

// Close drops every watch.
func (l *Loop) Close() {
	for key := range l.watches {
		l.unwatch(key.fd, key.dir)
	}
	l.engine.Destroy()
}
