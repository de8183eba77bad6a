package sockets

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotSupported 表示当前平台没有可用的套接字实现。
	ErrNotSupported = errors.New("sockets: not supported on this platform")
	// ErrClosed 表示套接字已经关闭。
	ErrClosed = errors.New("sockets: use of closed socket")
	// ErrWouldBlock 表示非阻塞套接字当前无法读写，应等待 poll 报告就绪。
	ErrWouldBlock = errors.New("sockets: operation would block")
)

// Socket 代表一个非阻塞的套接字描述符。
// 描述符由 Socket 独占，Close 之后不再可用。
type Socket struct {
	Fd      int
	Network string

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newSocket(fd int, network string) *Socket {
	return &Socket{Fd: fd, Network: network}
}

// Closed 报告套接字是否已经关闭。
func (s *Socket) Closed() bool {
	return s.closed.Load()
}

// Close 关闭描述符，重复调用返回第一次的结果。
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = closeFd(s.Fd)
	})
	return s.closeErr
}

// Read 从套接字读取数据。返回 0, nil 表示对端已关闭写方向。
func (s *Socket) Read(p []byte) (int, error) {
	if s.Closed() {
		return 0, ErrClosed
	}
	return readFd(s.Fd, p)
}

// Write 向套接字写入数据，可能只写入一部分。
func (s *Socket) Write(p []byte) (int, error) {
	if s.Closed() {
		return 0, ErrClosed
	}
	return writeFd(s.Fd, p)
}
