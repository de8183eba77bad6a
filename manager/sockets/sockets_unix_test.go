//go:build unix

package sockets

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPair(t *testing.T) {
	a, b, err := Pair()
	require.NoError(t, err)
	defer a.Close()
	defer b.Close()

	flags, err := unix.FcntlInt(uintptr(a.Fd), unix.F_GETFL, 0)
	require.NoError(t, err)
	require.NotZero(t, flags&unix.O_NONBLOCK)

	buf := make([]byte, 8)
	_, err = a.Read(buf)
	require.ErrorIs(t, err, ErrWouldBlock)

	n, err := b.Write([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	n, err = a.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))

	require.NoError(t, b.Close())
	n, err = a.Read(buf)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSocketClose(t *testing.T) {
	a, b, err := Pair()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	require.True(t, a.Closed())

	_, err = a.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
	_, err = a.Write([]byte("x"))
	require.ErrorIs(t, err, ErrClosed)
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
		close(accepted)
	}()

	var lookups int
	r := NewResolver(8, time.Minute, func(ctx context.Context, host string) ([]net.IP, error) {
		lookups++
		require.Equal(t, "echo.test", host)
		return []net.IP{net.IPv4(127, 0, 0, 1)}, nil
	})

	port := ln.Addr().(*net.TCPAddr).Port
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Dial(ctx, r, "tcp", "echo.test", port)
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, 1, lookups)

	peer, ok := <-accepted
	require.True(t, ok)
	defer peer.Close()

	_, err = peer.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	require.Eventually(t, func() bool {
		n, err := s.Read(buf)
		return err == nil && string(buf[:n]) == "hello"
	}, 2*time.Second, 10*time.Millisecond)

	_, err = Dial(ctx, r, "udp", "echo.test", port)
	require.Error(t, err)

	literal, err := Dial(ctx, r, "tcp", "127.0.0.1", port)
	require.NoError(t, err)
	require.NoError(t, literal.Close())
	require.Equal(t, 1, lookups)
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	r := NewResolver(1, time.Minute, nil)
	_, err = Dial(context.Background(), r, "tcp", addr.IP.String(), addr.Port)
	require.ErrorIs(t, err, unix.ECONNREFUSED)
}
