package middleware

import (
	"net/http"
	"strings"

	perr "gitstats/internal/platform/errors"
	pnet "gitstats/internal/platform/net"
)

// AuthPort resolves a caller identity from the request
type AuthPort interface {
	// Parse returns a caller identity from the request or an error
	Parse(r *http.Request) (userID string, err error)
}

// APIKeys is a static bearer key policy implementing AuthPort
type APIKeys struct {
	keys map[string]struct{}
}

// NewAPIKeys builds the policy from the configured key list
func NewAPIKeys(keys []string) APIKeys {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return APIKeys{keys: set}
}

// Parse implements AuthPort, the key itself becomes the caller identity
func (a APIKeys) Parse(r *http.Request) (string, error) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return "", perr.Unauthorizedf("missing authorization header")
	}
	key, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		return "", perr.Unauthorizedf("authorization must use the Bearer scheme")
	}
	if _, ok := a.keys[key]; !ok {
		return "", perr.Unauthorizedf("unknown api key")
	}
	return key, nil
}

// Auth is a no-op until wired. It uses the port when provided
func Auth(p AuthPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			uid, err := p.Parse(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithUser(r.Context(), uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
