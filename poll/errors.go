package poll

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrOutOfRange reports a descriptor that is negative or not below
	// MaxDescriptor, a full watch set, or an invalid Direction.
	ErrOutOfRange = errors.New("out of range")
	// ErrOutOfMemory reports that a watch set could not grow.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrIO reports a failure of the readiness primitive.
	ErrIO = errors.New("i/o error")
)

var errUnsupported = errors.New("readiness primitive not available on this platform")

// Error records a failed engine operation.
type Error struct {
	Op  string
	Fd  int // -1 when the operation is not about a single descriptor
	Err error
}

func (e *Error) Error() string {
	if e.Fd < 0 {
		return "poll " + e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("poll %s fd %d: %v", e.Op, e.Fd, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, fd int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Fd: fd, Err: err}
}

// ioError joins a platform failure under ErrIO.
func ioError(op string, err error) error {
	return &Error{Op: op, Fd: -1, Err: fmt.Errorf("%w: %w", ErrIO, err)}
}
