package module

import (
	"gitstats/internal/modkit/module"
	usersdomain "gitstats/internal/services/api/users/domain"
	usersmod "gitstats/internal/services/api/users/module"
)

// resolveStats looks the users statistics port up in the module registry
func resolveStats() usersdomain.StatsPort {
	if p, ok := module.PortsAs[usersmod.Ports]("users"); ok {
		return p.Stats
	}
	return nil
}
