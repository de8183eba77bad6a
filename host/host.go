// Package host exposes the poll engine and the socket primitives to
// WebAssembly guests running on wazero.
package host

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/OpenListTeam/wazero-sockpoll/handle"
	"github.com/OpenListTeam/wazero-sockpoll/internal/logging"
	"github.com/OpenListTeam/wazero-sockpoll/manager/sockets"
	"github.com/OpenListTeam/wazero-sockpoll/poll"
)

// Implementation 是所有 guest 模块必须实现的接口。
type Implementation interface {
	// Name 返回模块的名称，例如 "sockpoll:poll"。
	Name() string
	// Versions 返回此实现兼容的版本列表，例如 ["1.0"]。
	Versions() []string
	// Instantiate 将模块的函数导出到 wazero 运行时。
	Instantiate(context.Context, *Host, wazero.HostModuleBuilder) error
}

// Host 是所有模块实现共享的状态容器。
type Host struct {
	engines  *handle.Table[*Poller]
	files    *handle.Table[*handle.Ref[*File]]
	resolver *sockets.Resolver
	logger   *logging.Logger

	pollOptions     []poll.Option
	implementations []Implementation
}

// ModuleOption 是用于配置 Host 的选项函数。
type ModuleOption func(*Host)

// WithLogger 设置日志记录器，nil 表示不记录。
func WithLogger(l *logging.Logger) ModuleOption {
	return func(h *Host) {
		h.logger = l
	}
}

// WithPollOptions 为 guest 创建的每个 poll 引擎追加选项。
func WithPollOptions(opts ...poll.Option) ModuleOption {
	return func(h *Host) {
		h.pollOptions = append(h.pollOptions, opts...)
	}
}

// WithResolver 替换 connect 使用的域名解析器。
func WithResolver(r *sockets.Resolver) ModuleOption {
	return func(h *Host) {
		h.resolver = r
	}
}

// NewHost 创建一个新的 Host 实例，并应用所有提供的模块选项。
func NewHost(opts ...ModuleOption) *Host {
	h := &Host{
		engines: handle.NewTable(func(p *Poller) {
			p.Destroy()
		}),
		files: handle.NewTable(func(r *handle.Ref[*File]) {
			if r.Value().closed.CompareAndSwap(false, true) {
				r.Release()
			}
		}),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.resolver == nil {
		h.resolver = sockets.NewResolver(256, 5*time.Minute, nil)
	}
	return h
}

func (h *Host) AddImplementation(impl Implementation) {
	h.implementations = append(h.implementations, impl)
}

// Instantiate 将所有已配置的模块实例化到 wazero 运行时。
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) error {
	for _, impl := range h.implementations {
		for _, version := range impl.Versions() {
			moduleName := impl.Name() + "@" + version
			builder := r.NewHostModuleBuilder(moduleName)
			if err := impl.Instantiate(ctx, h, builder); err != nil {
				return err
			}

			if _, err := builder.Instantiate(ctx); err != nil {
				return err
			}
			h.logger.Info().Str("module", moduleName).Log("host module instantiated")
		}
	}
	return nil
}

// NewPoller 创建一个使用 Host 配置的 poll 引擎并登记到引擎表中。
func (h *Host) NewPoller() (uint32, *Poller) {
	p := newPoller(h.newEngine())
	return h.engines.Add(p), p
}

// ClonePoller 复制 src 的全部登记，新引擎登记到引擎表中。
func (h *Host) ClonePoller(src *Poller) (uint32, *Poller) {
	p := newPoller(h.newEngine())
	p.CopyFrom(src)
	return h.engines.Add(p), p
}

func (h *Host) newEngine() *poll.Engine {
	opts := make([]poll.Option, 0, len(h.pollOptions)+1)
	opts = append(opts, poll.WithLogger(h.logger))
	opts = append(opts, h.pollOptions...)
	return poll.New(opts...)
}

// Pollers 返回 poll 引擎表。
func (h *Host) Pollers() *handle.Table[*Poller] {
	return h.engines
}

// Files 返回文件表。
func (h *Host) Files() *handle.Table[*handle.Ref[*File]] {
	return h.files
}

// AddFile 将套接字包装为文件并登记到文件表中，返回文件 id。
// 最后一个引用释放时文件从表中移除，套接字关闭。
func (h *Host) AddFile(s *sockets.Socket) uint32 {
	f := &File{Socket: s}
	ref := handle.New(f, func(f *File) {
		h.files.Take(f.ID)
		if err := f.Socket.Close(); err != nil {
			h.logger.Warning().Int("fd", f.Socket.Fd).Err(err).Log("close socket")
		}
	})
	f.ID = h.files.Add(ref)
	return f.ID
}

// File 按 id 查找文件，包括 guest 已关闭但仍被引擎登记的文件。
func (h *Host) File(id uint32) (*handle.Ref[*File], bool) {
	return h.files.Get(id)
}

// OpenFile 按 id 查找 guest 尚未关闭的文件。
func (h *Host) OpenFile(id uint32) (*handle.Ref[*File], bool) {
	ref, ok := h.files.Get(id)
	if !ok || ref.Value().Closed() {
		return nil, false
	}
	return ref, true
}

// CloseFile 释放文件表对文件的引用。仍被 poll 引擎登记的文件保持打开，
// 其 id 在最后一个引擎移除它之前仍然有效。重复关闭返回 false。
func (h *Host) CloseFile(id uint32) bool {
	ref, ok := h.files.Get(id)
	if !ok || !ref.Value().closed.CompareAndSwap(false, true) {
		return false
	}
	ref.Release()
	return true
}

func (h *Host) Resolver() *sockets.Resolver {
	return h.resolver
}

func (h *Host) Logger() *logging.Logger {
	return h.logger
}

// Close 销毁所有引擎并释放所有文件。
// 引擎先于文件销毁，文件表中的引用最后释放，套接字随之关闭。
func (h *Host) Close() {
	h.engines.Close()
	h.files.Close()
}
