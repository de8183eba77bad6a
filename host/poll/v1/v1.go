package v1

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/OpenListTeam/wazero-sockpoll/host"
)

type sockpollPoll struct{}

func New() host.Implementation {
	return &sockpollPoll{}
}

func (i *sockpollPoll) Name() string       { return "sockpoll:poll" }
func (i *sockpollPoll) Versions() []string { return []string{"1.0"} }

func (i *sockpollPoll) Instantiate(_ context.Context, h *host.Host, builder wazero.HostModuleBuilder) error {
	handler := newPollImpl(h)
	export := func(name string, fn any) {
		builder.NewFunctionBuilder().WithFunc(fn).Export(name)
	}

	export("empty", handler.Empty)
	export("create", handler.Create)
	export("copy", handler.Copy)
	export("destroy", handler.Destroy)
	export("clear", handler.Clear)

	export("add-check", handler.AddCheck)
	export("remove-check", handler.RemoveCheck)
	export("get-check", handler.GetCheck)
	export("get-finding", handler.GetFinding)

	export("iter-checks", handler.IterChecks)
	export("iter-findings", handler.IterFindings)
	export("has-next", handler.HasNext)
	export("next-file", handler.NextFile)

	export("poll", handler.Poll)
	export("poll-timeout", handler.PollTimeout)
	export("ready-count", handler.ReadyCount)
	export("files", handler.Files)
	return nil
}
