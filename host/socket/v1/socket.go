package v1

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/OpenListTeam/wazero-sockpoll/host"
	"github.com/OpenListTeam/wazero-sockpoll/manager/sockets"
)

// socketImpl 持有 sockpoll:socket 的具体实现逻辑。
type socketImpl struct {
	h *host.Host
}

func newSocketImpl(h *host.Host) *socketImpl {
	return &socketImpl{h: h}
}

func (i *socketImpl) socket(file uint32) (*sockets.Socket, bool) {
	ref, ok := i.h.OpenFile(file)
	if !ok {
		return nil, false
	}
	return ref.Value().Socket, true
}

// Pair 创建一对相连的套接字，两个文件 id 依次写入 outPtr。
func (i *socketImpl) Pair(_ context.Context, m api.Module, outPtr uint32) uint32 {
	mem := m.Memory()
	if mem == nil {
		return uint32(ErrorCodeBadPointer)
	}
	// 先确认输出位置可写，避免创建后无法交给 guest 的套接字
	if _, ok := mem.Read(outPtr, 8); !ok {
		return uint32(ErrorCodeBadPointer)
	}
	a, b, err := sockets.Pair()
	if err != nil {
		return uint32(mapOsError(err))
	}
	mem.WriteUint32Le(outPtr, i.h.AddFile(a))
	mem.WriteUint32Le(outPtr+4, i.h.AddFile(b))
	return uint32(ErrorCodeOK)
}

// Connect 解析 guest 内存中的主机名并建立 TCP 连接，文件 id 写入 outPtr。
func (i *socketImpl) Connect(ctx context.Context, m api.Module, hostPtr, hostLen, port, outPtr uint32) uint32 {
	mem := m.Memory()
	if mem == nil {
		return uint32(ErrorCodeBadPointer)
	}
	name, ok := mem.Read(hostPtr, hostLen)
	if !ok {
		return uint32(ErrorCodeBadPointer)
	}
	if _, ok := mem.Read(outPtr, 4); !ok {
		return uint32(ErrorCodeBadPointer)
	}
	if port > 0xffff {
		return uint32(ErrorCodeInvalidArgument)
	}
	s, err := sockets.Dial(ctx, i.h.Resolver(), "tcp", string(name), int(port))
	if err != nil {
		i.h.Logger().Debug().Str("host", string(name)).Int("port", int(port)).Err(err).Log("connect failed")
		return uint32(mapOsError(err))
	}
	mem.WriteUint32Le(outPtr, i.h.AddFile(s))
	return uint32(ErrorCodeOK)
}

// Fd 返回文件的描述符，文件无效时返回 -1。
func (i *socketImpl) Fd(_ context.Context, file uint32) int32 {
	s, ok := i.socket(file)
	if !ok {
		return -1
	}
	return int32(s.Fd)
}

// Read 直接读入 guest 内存，读取的字节数写入 nPtr。0 表示对端已关闭。
func (i *socketImpl) Read(_ context.Context, m api.Module, file, ptr, length, nPtr uint32) uint32 {
	s, ok := i.socket(file)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	mem := m.Memory()
	if mem == nil {
		return uint32(ErrorCodeBadPointer)
	}
	buf, ok := mem.Read(ptr, length)
	if !ok {
		return uint32(ErrorCodeBadPointer)
	}
	if _, ok := mem.Read(nPtr, 4); !ok {
		return uint32(ErrorCodeBadPointer)
	}
	n, err := s.Read(buf)
	if err != nil {
		return uint32(mapOsError(err))
	}
	mem.WriteUint32Le(nPtr, uint32(n))
	return uint32(ErrorCodeOK)
}

// Write 写出 guest 内存中的数据，实际写入的字节数写入 nPtr。
func (i *socketImpl) Write(_ context.Context, m api.Module, file, ptr, length, nPtr uint32) uint32 {
	s, ok := i.socket(file)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	mem := m.Memory()
	if mem == nil {
		return uint32(ErrorCodeBadPointer)
	}
	buf, ok := mem.Read(ptr, length)
	if !ok {
		return uint32(ErrorCodeBadPointer)
	}
	if _, ok := mem.Read(nPtr, 4); !ok {
		return uint32(ErrorCodeBadPointer)
	}
	n, err := s.Write(buf)
	if err != nil {
		return uint32(mapOsError(err))
	}
	mem.WriteUint32Le(nPtr, uint32(n))
	return uint32(ErrorCodeOK)
}

// Close 释放 guest 对文件的引用。仍被 poll 引擎登记的文件
// 在最后一个引擎移除它之前保持打开，期间只能用于 remove-check 等查询。
func (i *socketImpl) Close(_ context.Context, file uint32) uint32 {
	if !i.h.CloseFile(file) {
		return uint32(ErrorCodeInvalidHandle)
	}
	return uint32(ErrorCodeOK)
}
