package v1

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/OpenListTeam/wazero-sockpoll/host"
)

type sockpollSocket struct{}

func New() host.Implementation {
	return &sockpollSocket{}
}

func (i *sockpollSocket) Name() string       { return "sockpoll:socket" }
func (i *sockpollSocket) Versions() []string { return []string{"1.0"} }

func (i *sockpollSocket) Instantiate(_ context.Context, h *host.Host, builder wazero.HostModuleBuilder) error {
	handler := newSocketImpl(h)
	builder.NewFunctionBuilder().WithFunc(handler.Pair).Export("pair")
	builder.NewFunctionBuilder().WithFunc(handler.Connect).Export("connect")
	builder.NewFunctionBuilder().WithFunc(handler.Fd).Export("fd")
	builder.NewFunctionBuilder().WithFunc(handler.Read).Export("read")
	builder.NewFunctionBuilder().WithFunc(handler.Write).Export("write")
	builder.NewFunctionBuilder().WithFunc(handler.Close).Export("close")
	return nil
}
