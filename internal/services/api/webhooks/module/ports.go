package module

import (
	"gitstats/internal/services/api/webhooks/domain"
)

// Ports are the cross module surfaces the webhooks module exposes
type Ports struct {
	// Dispatcher evaluates snapshot transitions and delivers callbacks
	Dispatcher domain.DispatcherPort
}
