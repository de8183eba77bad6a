package host

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpenListTeam/wazero-sockpoll/handle"
	"github.com/OpenListTeam/wazero-sockpoll/manager/sockets"
	"github.com/OpenListTeam/wazero-sockpoll/poll"
)

// File 是 guest 可见的文件，包装一个套接字。
// 文件表和每个登记了它的 poll 引擎各持有一个引用，最后一个引用释放时
// 套接字关闭，文件 id 随之失效。guest 关闭后、引擎释放前，id 仍可用于
// remove-check 等查询。
type File struct {
	ID     uint32
	Socket *sockets.Socket

	closed atomic.Bool
}

// Closed 报告 guest 是否已经关闭了该文件。
func (f *File) Closed() bool {
	return f.closed.Load()
}

// FileOf 返回引擎迭代器交出的句柄所对应的文件。
func FileOf(h handle.Handle) (*File, bool) {
	ref, ok := h.(*handle.Ref[*File])
	if !ok || ref == nil {
		return nil, false
	}
	return ref.Value(), true
}

// Poller 为 poll.Engine 加锁，使不同 guest 实例可以安全共享同一个引擎 id。
type Poller struct {
	mu     sync.Mutex
	engine *poll.Engine
}

func newPoller(e *poll.Engine) *Poller {
	return &Poller{engine: e}
}

// Do 在持有锁的情况下调用 f。
func (p *Poller) Do(f func(e *poll.Engine)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(p.engine)
}

// Poll 等待登记的描述符就绪，timeout 为负表示无限等待。
// 阻塞等待在引擎的副本上进行，不持有锁；副本持有文件引用，等待期间套接字
// 不会被关闭。副本返回后在锁内以零超时重新 poll 引擎本身，结果反映此刻的登记。
func (p *Poller) Poll(timeout time.Duration) error {
	if timeout != 0 {
		p.mu.Lock()
		snapshot := p.engine.Clone()
		p.mu.Unlock()

		err := snapshot.PollTimeout(timeout)
		snapshot.Destroy()
		if err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.PollTimeout(0)
}

// CopyFrom 用 src 的内容替换 p 的内容。
func (p *Poller) CopyFrom(src *Poller) {
	if p == src {
		return
	}
	src.mu.Lock()
	clone := src.engine.Clone()
	src.mu.Unlock()

	p.mu.Lock()
	p.engine.CopyFrom(clone)
	p.mu.Unlock()
	clone.Destroy()
}

// Destroy 释放引擎持有的所有文件引用。
func (p *Poller) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.Destroy()
}
