package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	perr "gitstats/internal/platform/errors"
	pnet "gitstats/internal/platform/net"
)

// RateLimitOptions configures per client token buckets
type RateLimitOptions struct {
	// PerMinute is the anonymous tier, keyed by client IP
	PerMinute int

	// AuthPerMinute is the tier for requests carrying a key identity
	// zero falls back to PerMinute
	AuthPerMinute int

	// Burst defaults to the tier size
	Burst int

	// MaxClients bounds the limiter map, default 10000
	MaxClients int
}

// RateLimit enforces token buckets per client identity
// authenticated requests are keyed by their API key, others by IP
func RateLimit(opts RateLimitOptions, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	if opts.PerMinute <= 0 {
		opts.PerMinute = 30
	}
	if opts.AuthPerMinute <= 0 {
		opts.AuthPerMinute = opts.PerMinute
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = 10000
	}

	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	get := func(key string, perMinute int) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if lim, ok := limiters[key]; ok {
			return lim
		}
		// crude bound, a full map is dropped wholesale rather than leaked
		if len(limiters) >= opts.MaxClients {
			limiters = map[string]*rate.Limiter{}
		}
		burst := opts.Burst
		if burst <= 0 {
			burst = perMinute
		}
		lim := rate.NewLimiter(rate.Limit(perMinute)/60, burst)
		limiters[key] = lim
		return lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, perMinute := clientKey(r), opts.PerMinute
			if uid := pnet.UserID(r.Context()); uid != "" {
				key, perMinute = "key:"+uid, opts.AuthPerMinute
			}

			if !get(key, perMinute).Allow() {
				retry := 60 / perMinute
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				status, body := pnet.Error(
					perr.TooManyf("rate limit exceeded, retry in %ds", retry),
					pnet.RequestID(r.Context()),
				)
				write(w, status, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey prefers the resolved client IP, RealIP runs earlier in the stack
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
