package sockpoll_poll

import (
	"github.com/OpenListTeam/wazero-sockpoll/host"
	v1 "github.com/OpenListTeam/wazero-sockpoll/host/poll/v1"
)

// Module 返回一个配置好的 sockpoll:poll 模块选项。
func Module(version string) host.ModuleOption {
	return func(h *host.Host) {
		var impl host.Implementation
		switch version {
		case "1", "1.0":
			impl = v1.New()
		default:
			return
		}
		h.AddImplementation(impl)
	}
}
