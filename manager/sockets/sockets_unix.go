//go:build unix

package sockets

import (
	"context"
	"errors"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// Pair 创建一对相互连接的 unix 流套接字。
func Pair() (*Socket, *Socket, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, err
	}
	for _, fd := range fds {
		if err := prepareFd(fd); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, nil, err
		}
	}
	return newSocket(fds[0], "unix"), newSocket(fds[1], "unix"), nil
}

// Dial 通过 resolver 解析 host 并依次尝试每个地址，直到连接成功。
// 返回的套接字持有连接描述符的副本，处于非阻塞模式。
func Dial(ctx context.Context, r *Resolver, network, host string, port int) (*Socket, error) {
	switch network {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, net.UnknownNetworkError(network)
	}
	ips, err := r.Lookup(ctx, host)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	var errs []error
	for _, ip := range ips {
		conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip.String(), strconv.Itoa(port)))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fd, err := dupConn(conn.(*net.TCPConn))
		conn.Close()
		if err != nil {
			return nil, err
		}
		return newSocket(fd, network), nil
	}
	return nil, errors.Join(errs...)
}

func dupConn(conn *net.TCPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	var dupErr error
	if err := raw.Control(func(s uintptr) {
		fd, dupErr = unix.Dup(int(s))
	}); err != nil {
		return -1, err
	}
	if dupErr != nil {
		return -1, dupErr
	}
	if err := prepareFd(fd); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func prepareFd(fd int) error {
	unix.CloseOnExec(fd)
	return unix.SetNonblock(fd, true)
}

func closeFd(fd int) error {
	return unix.Close(fd)
}

func readFd(fd int, p []byte) (int, error) {
	n, err := unix.Read(fd, p)
	return n, mapErrno(err)
}

func writeFd(fd int, p []byte) (int, error) {
	n, err := unix.Write(fd, p)
	return n, mapErrno(err)
}

func mapErrno(err error) error {
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return ErrWouldBlock
	}
	return err
}
