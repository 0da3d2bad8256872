package stats

import (
	"fmt"
	"sync"

	"gitstats/internal/platform/logger"
)

// Warning records one degraded section of a partially collected payload
type Warning struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// Partial accumulates warnings from best effort collection
type Partial struct {
	mu       sync.Mutex
	warnings []Warning
}

// Warnings returns the accumulated warnings in arrival order
func (p *Partial) Warnings() []Warning {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Warning(nil), p.warnings...)
}

func (p *Partial) add(section, message string) {
	p.mu.Lock()
	p.warnings = append(p.warnings, Warning{Section: section, Message: message})
	p.mu.Unlock()
	logger.Named("stats").Warn().Str("section", section).Str("reason", message).Msg("section degraded")
}

// Safe runs fn and converts an error or panic into a warning plus zero value
func Safe[T any](p *Partial, section string, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			p.add(section, fmt.Sprintf("panic: %v", r))
		}
	}()
	v, err := fn()
	if err != nil {
		p.add(section, err.Error())
		return out
	}
	return v
}
