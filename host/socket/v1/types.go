package v1

import (
	"errors"
	"net"
	"syscall"

	"github.com/OpenListTeam/wazero-sockpoll/manager/sockets"
)

// ErrorCode 是 sockpoll:socket 函数返回给 guest 的错误码。
type ErrorCode uint32

const (
	ErrorCodeOK ErrorCode = iota
	ErrorCodeUnknown
	ErrorCodeInvalidHandle
	ErrorCodeBadPointer
	ErrorCodeInvalidArgument
	ErrorCodeNotSupported
	ErrorCodeWouldBlock
	ErrorCodeClosed
	ErrorCodeAccessDenied
	ErrorCodeConnectionRefused
	ErrorCodeConnectionReset
	ErrorCodeRemoteUnreachable
	ErrorCodeTimeout
	ErrorCodeNameUnresolvable
	ErrorCodeTemporaryResolverFailure
	ErrorCodeNewSocketLimit
)

// mapDnsError 将 Go 的 net.DNSError 映射到 ErrorCode。
func mapDnsError(dnsErr *net.DNSError) ErrorCode {
	if dnsErr.IsTemporary || dnsErr.IsTimeout {
		return ErrorCodeTemporaryResolverFailure
	}
	return ErrorCodeNameUnresolvable
}

// mapOsError 将 Go 的 os/syscall 网络错误映射到 ErrorCode。
func mapOsError(err error) ErrorCode {
	if err == nil {
		return ErrorCodeOK
	}
	switch {
	case errors.Is(err, sockets.ErrWouldBlock):
		return ErrorCodeWouldBlock
	case errors.Is(err, sockets.ErrClosed):
		return ErrorCodeClosed
	case errors.Is(err, sockets.ErrNotSupported):
		return ErrorCodeNotSupported
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return mapDnsError(dnsErr)
	}
	var netErr net.UnknownNetworkError
	if errors.As(err, &netErr) {
		return ErrorCodeNotSupported
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			return ErrorCodeAccessDenied
		case syscall.ECONNREFUSED:
			return ErrorCodeConnectionRefused
		case syscall.ECONNRESET, syscall.EPIPE:
			return ErrorCodeConnectionReset
		case syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return ErrorCodeRemoteUnreachable
		case syscall.ETIMEDOUT:
			return ErrorCodeTimeout
		case syscall.ENFILE, syscall.EMFILE:
			return ErrorCodeNewSocketLimit
		case syscall.EINVAL:
			return ErrorCodeInvalidArgument
		case syscall.EBADF:
			return ErrorCodeClosed
		}
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrorCodeTimeout
	}
	return ErrorCodeUnknown
}
