//go:build unix

package poll

import (
	"time"

	"golang.org/x/sys/unix"
)

// DefaultBridge returns SelectBridge.
func DefaultBridge() Bridge {
	return SelectBridge{}
}

// SelectBridge waits with select(2).
type SelectBridge struct{}

func (SelectBridge) Wait(nfds int, read, write *FdSet, timeout time.Duration) (int, error) {
	return retryInterrupted(read, write, timeout, func(r, w *FdSet, d time.Duration) (int, error) {
		var tv *unix.Timeval
		if d >= 0 {
			t := unix.NsecToTimeval(d.Nanoseconds())
			tv = &t
		}
		return unix.Select(nfds, r.sys(), w.sys(), nil, tv)
	})
}

// PollBridge waits with poll(2). It accepts the same bitmasks as
// SelectBridge and translates them into a pollfd list for every wait.
type PollBridge struct{}

func (PollBridge) Wait(nfds int, read, write *FdSet, timeout time.Duration) (int, error) {
	fds := make([]unix.PollFd, 0, read.Count()+write.Count())
	for fd := 0; fd < nfds; fd++ {
		var events int16
		if read.IsSet(fd) {
			events |= unix.POLLIN
		}
		if write.IsSet(fd) {
			events |= unix.POLLOUT
		}
		if events != 0 {
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: events})
		}
	}

	_, err := retryInterrupted(read, write, timeout, func(_, _ *FdSet, d time.Duration) (int, error) {
		return unix.Poll(fds, pollMillis(d))
	})
	if err != nil {
		return 0, err
	}

	for _, p := range fds {
		if p.Revents&unix.POLLNVAL != 0 {
			return 0, unix.EBADF
		}
	}
	read.Zero()
	write.Zero()
	var n int
	for _, p := range fds {
		fd := int(p.Fd)
		if p.Events&unix.POLLIN != 0 && p.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			read.Set(fd)
			n++
		}
		if p.Events&unix.POLLOUT != 0 && p.Revents&(unix.POLLOUT|unix.POLLHUP|unix.POLLERR) != 0 {
			write.Set(fd)
			n++
		}
	}
	return n, nil
}

// pollMillis rounds d up to whole milliseconds, -1 blocks.
func pollMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}
