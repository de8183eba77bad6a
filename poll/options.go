package poll

import (
	"github.com/joeycumines/logiface"
)

const (
	defaultTableStart     = 256
	defaultTableIncrement = 1024
)

type options struct {
	bridge    Bridge
	logger    *logiface.Logger[logiface.Event]
	start     int
	increment int
	limit     int
}

// Option configures an Engine.
type Option func(*options)

// WithBridge sets the readiness primitive. The default is DefaultBridge().
func WithBridge(b Bridge) Option {
	return func(o *options) {
		o.bridge = b
	}
}

// WithLogger sets the logger. A nil logger discards everything.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTableSize sets the initial capacity of each watch set and the number
// of entries added every time a watch set runs out of room.
// Non-positive values keep the defaults (256 and 1024).
func WithTableSize(start, increment int) Option {
	return func(o *options) {
		if start > 0 {
			o.start = start
		}
		if increment > 0 {
			o.increment = increment
		}
	}
}

// WithCapacityLimit caps the number of entries a single watch set may
// allocate room for. A watch set that needs to grow past the limit fails
// with ErrOutOfMemory. Zero means no limit.
func WithCapacityLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.limit = n
		}
	}
}

func resolveOptions(opts []Option) options {
	o := options{
		start:     defaultTableStart,
		increment: defaultTableIncrement,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bridge == nil {
		o.bridge = DefaultBridge()
	}
	return o
}
