package v1

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/OpenListTeam/wazero-sockpoll/handle"
	"github.com/OpenListTeam/wazero-sockpoll/host"
	"github.com/OpenListTeam/wazero-sockpoll/poll"
)

// pollImpl 持有 sockpoll:poll 的具体实现逻辑。
type pollImpl struct {
	h *host.Host
}

func newPollImpl(h *host.Host) *pollImpl {
	return &pollImpl{h: h}
}

// lookup 同时解析引擎和文件 id。guest 已关闭但仍被登记的文件也能解析，
// 以便移除它的登记。
func (i *pollImpl) lookup(id, file uint32) (*host.Poller, *handle.Ref[*host.File], bool) {
	return i.resolve(id, file, i.h.File)
}

func (i *pollImpl) resolve(id, file uint32, files func(uint32) (*handle.Ref[*host.File], bool)) (*host.Poller, *handle.Ref[*host.File], bool) {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return nil, nil, false
	}
	ref, ok := files(file)
	if !ok {
		return nil, nil, false
	}
	return p, ref, true
}

// Empty 创建一个空引擎，返回其 id。
func (i *pollImpl) Empty(_ context.Context) uint32 {
	id, _ := i.h.NewPoller()
	return id
}

// Create 创建 src 的深拷贝，src 无效时返回 0。
func (i *pollImpl) Create(_ context.Context, src uint32) uint32 {
	p, ok := i.h.Pollers().Get(src)
	if !ok {
		return 0
	}
	id, _ := i.h.ClonePoller(p)
	return id
}

// Copy 用 src 的内容替换 dst 的内容。
func (i *pollImpl) Copy(_ context.Context, dst, src uint32) uint32 {
	d, ok := i.h.Pollers().Get(dst)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	s, ok := i.h.Pollers().Get(src)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	d.CopyFrom(s)
	return uint32(ErrorCodeOK)
}

// Destroy 销毁引擎，释放它持有的所有文件引用。
func (i *pollImpl) Destroy(_ context.Context, id uint32) uint32 {
	if !i.h.Pollers().Remove(id) {
		return uint32(ErrorCodeInvalidHandle)
	}
	return uint32(ErrorCodeOK)
}

func (i *pollImpl) Clear(_ context.Context, id uint32) uint32 {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	p.Do(func(e *poll.Engine) { e.Clear() })
	return uint32(ErrorCodeOK)
}

// AddCheck 登记文件的读/写就绪检查，引擎持有文件的一个引用。
// 已关闭的文件不能再登记。
func (i *pollImpl) AddCheck(_ context.Context, id, file, mode uint32) uint32 {
	dir, ok := toDirection(mode)
	if !ok {
		return uint32(ErrorCodeRange)
	}
	p, ref, ok := i.resolve(id, file, i.h.OpenFile)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	var err error
	p.Do(func(e *poll.Engine) {
		err = e.AddCheck(ref.Value().Socket.Fd, dir, ref)
	})
	return uint32(mapPollError(err))
}

func (i *pollImpl) RemoveCheck(_ context.Context, id, file, mode uint32) uint32 {
	dir, ok := toDirection(mode)
	if !ok {
		return uint32(ErrorCodeRange)
	}
	p, ref, ok := i.lookup(id, file)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	var err error
	p.Do(func(e *poll.Engine) {
		err = e.RemoveCheck(ref.Value().Socket.Fd, dir)
	})
	return uint32(mapPollError(err))
}

// GetCheck 返回文件被检查的方向，id 无效时返回 DirectionNothing。
func (i *pollImpl) GetCheck(_ context.Context, id, file uint32) uint32 {
	p, ref, ok := i.lookup(id, file)
	if !ok {
		return DirectionNothing
	}
	var dir poll.Direction
	p.Do(func(e *poll.Engine) { dir = e.Check(ref.Value().Socket.Fd) })
	return uint32(dir)
}

// GetFinding 返回上一次 poll 发现文件就绪的方向。
func (i *pollImpl) GetFinding(_ context.Context, id, file uint32) uint32 {
	p, ref, ok := i.lookup(id, file)
	if !ok {
		return DirectionNothing
	}
	var dir poll.Direction
	p.Do(func(e *poll.Engine) { dir = e.Finding(ref.Value().Socket.Fd) })
	return uint32(dir)
}

func (i *pollImpl) IterChecks(_ context.Context, id, mode uint32) uint32 {
	return i.iter(id, mode, (*poll.Engine).IterChecks)
}

func (i *pollImpl) IterFindings(_ context.Context, id, mode uint32) uint32 {
	return i.iter(id, mode, (*poll.Engine).IterFindings)
}

func (i *pollImpl) iter(id, mode uint32, start func(*poll.Engine, poll.Direction) error) uint32 {
	dir, ok := toDirection(mode)
	if !ok {
		return uint32(ErrorCodeRange)
	}
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	var err error
	p.Do(func(e *poll.Engine) { err = start(e, dir) })
	return uint32(mapPollError(err))
}

// HasNext 返回 1 表示当前迭代还有文件。
func (i *pollImpl) HasNext(_ context.Context, id uint32) uint32 {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return 0
	}
	var next bool
	p.Do(func(e *poll.Engine) { next = e.HasNext() })
	if next {
		return 1
	}
	return 0
}

// NextFile 返回当前迭代的下一个文件 id，迭代结束后返回 def。
func (i *pollImpl) NextFile(_ context.Context, id, def uint32) uint32 {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return def
	}
	var h handle.Handle
	p.Do(func(e *poll.Engine) { h = e.NextHandle(nil) })
	f, ok := host.FileOf(h)
	if !ok {
		return def
	}
	return f.ID
}

// Poll 阻塞直到至少一个登记的文件就绪。
func (i *pollImpl) Poll(ctx context.Context, id uint32) uint32 {
	return i.PollTimeout(ctx, id, -1)
}

// PollTimeout 最多等待 timeout 纳秒，负数表示无限等待。超时不是错误。
func (i *pollImpl) PollTimeout(_ context.Context, id uint32, timeout int64) uint32 {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	return uint32(mapPollError(p.Poll(time.Duration(timeout))))
}

// ReadyCount 返回上一次 poll 的就绪数量，读写方向分别计数。
func (i *pollImpl) ReadyCount(_ context.Context, id uint32) uint32 {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return 0
	}
	var n int
	p.Do(func(e *poll.Engine) { n = e.ReadyCount() })
	return uint32(n)
}

// Files 将引擎登记的文件 id 写入 guest 内存 ptr 处，最多 capacity 个，
// 总数写入 countPtr。同时登记读写的文件出现两次。
func (i *pollImpl) Files(_ context.Context, m api.Module, id, ptr, capacity, countPtr uint32) uint32 {
	p, ok := i.h.Pollers().Get(id)
	if !ok {
		return uint32(ErrorCodeInvalidHandle)
	}
	var ids []uint32
	p.Do(func(e *poll.Engine) {
		for _, h := range e.Files() {
			if f, ok := host.FileOf(h); ok {
				ids = append(ids, f.ID)
			}
		}
	})

	mem := m.Memory()
	if mem == nil {
		return uint32(ErrorCodeBadPointer)
	}
	n := min(uint32(len(ids)), capacity)
	for k := uint32(0); k < n; k++ {
		if !mem.WriteUint32Le(ptr+4*k, ids[k]) {
			return uint32(ErrorCodeBadPointer)
		}
	}
	if !mem.WriteUint32Le(countPtr, uint32(len(ids))) {
		return uint32(ErrorCodeBadPointer)
	}
	return uint32(ErrorCodeOK)
}
