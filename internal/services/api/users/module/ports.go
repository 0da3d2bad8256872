package module

import (
	"gitstats/internal/services/api/users/domain"
)

// Ports are the cross module surfaces the users module exposes
type Ports struct {
	// Stats is the cache backed statistics read surface
	Stats domain.StatsPort

	// Collector builds fresh snapshot payloads for persistence
	Collector domain.CollectorPort
}
