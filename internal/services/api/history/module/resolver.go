package module

import (
	"gitstats/internal/modkit/module"
	webhooksdomain "gitstats/internal/services/api/webhooks/domain"
	webhooksmod "gitstats/internal/services/api/webhooks/module"
)

// resolveDispatcher looks the webhooks dispatcher up in the module registry
// nil when the webhooks module is not mounted, snapshots then skip dispatch
func resolveDispatcher() webhooksdomain.DispatcherPort {
	if p, ok := module.PortsAs[webhooksmod.Ports]("webhooks"); ok {
		return p.Dispatcher
	}
	return nil
}
