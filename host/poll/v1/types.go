package v1

import (
	"errors"

	"github.com/OpenListTeam/wazero-sockpoll/poll"
)

// ErrorCode 是 sockpoll:poll 函数返回给 guest 的错误码。
type ErrorCode uint32

const (
	ErrorCodeOK ErrorCode = iota
	// ErrorCodeRange 描述符越界、监视集已满或方向无效。
	ErrorCodeRange
	// ErrorCodeMemory 监视集无法扩容。
	ErrorCodeMemory
	// ErrorCodeFile 就绪等待失败。
	ErrorCodeFile
	// ErrorCodeInvalidHandle 引擎或文件 id 不存在。
	ErrorCodeInvalidHandle
	// ErrorCodeBadPointer guest 内存访问越界。
	ErrorCodeBadPointer
)

// Direction 与 poll.Direction 取值一致。
const (
	DirectionNothing uint32 = iota
	DirectionIn
	DirectionOut
	DirectionInOut
)

// mapPollError 将引擎错误映射到 ErrorCode。
func mapPollError(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrorCodeOK
	case errors.Is(err, poll.ErrOutOfRange):
		return ErrorCodeRange
	case errors.Is(err, poll.ErrOutOfMemory):
		return ErrorCodeMemory
	default:
		return ErrorCodeFile
	}
}

// toDirection 校验 guest 传入的方向。
func toDirection(mode uint32) (poll.Direction, bool) {
	if mode > DirectionInOut {
		return 0, false
	}
	return poll.Direction(mode), true
}
