package poll

import (
	"errors"
	"syscall"
	"time"
)

// Bridge is the platform readiness primitive.
//
// On entry read and write hold the descriptors to wait for, all of them
// below nfds. On success they hold the subset found ready and the returned
// count is the number of bits left set across both. A negative timeout
// blocks until something is ready, zero does not block at all, and an
// expired timeout is a success with a count of 0.
//
// Implementations retry interrupted waits themselves.
type Bridge interface {
	Wait(nfds int, read, write *FdSet, timeout time.Duration) (int, error)
}

// BridgeFunc adapts a function to Bridge.
type BridgeFunc func(nfds int, read, write *FdSet, timeout time.Duration) (int, error)

func (f BridgeFunc) Wait(nfds int, read, write *FdSet, timeout time.Duration) (int, error) {
	return f(nfds, read, write, timeout)
}

// NoopBridge is the bridge for platforms without a readiness primitive.
// Every wait fails.
type NoopBridge struct{}

func (NoopBridge) Wait(int, *FdSet, *FdSet, time.Duration) (int, error) {
	return 0, errUnsupported
}

// retryInterrupted runs wait until it fails with something other than
// EINTR. The sets are restored and the timeout shortened by the time
// already spent before every new attempt.
func retryInterrupted(read, write *FdSet, timeout time.Duration, wait func(read, write *FdSet, timeout time.Duration) (int, error)) (int, error) {
	rd, wr := *read, *write
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		n, err := wait(read, write, timeout)
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return n, err
		}
		*read, *write = rd, wr
		if timeout > 0 {
			timeout = max(time.Until(deadline), 0)
		}
	}
}
