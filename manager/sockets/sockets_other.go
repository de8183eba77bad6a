//go:build !unix

package sockets

import "context"

// Pair 在此平台不可用。
func Pair() (*Socket, *Socket, error) {
	return nil, nil, ErrNotSupported
}

// Dial 在此平台不可用。
func Dial(context.Context, *Resolver, string, string, int) (*Socket, error) {
	return nil, ErrNotSupported
}

func closeFd(int) error {
	return ErrNotSupported
}

func readFd(int, []byte) (int, error) {
	return 0, ErrNotSupported
}

func writeFd(int, []byte) (int, error) {
	return 0, ErrNotSupported
}
