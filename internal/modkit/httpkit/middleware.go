package httpkit

import (
	"compress/flate"
	"net/http"

	phttp "gitstats/internal/platform/net/http"
	"gitstats/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice
// compose with your auth middleware as needed in main
// corsOrigins empty means allow all
func CommonStack(corsOrigins ...string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.Logger(),

		// cross-origin, cache state and rate headers are surfaced to browsers
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: corsOrigins,
			ExposedHeaders: []string{
				"X-Cache",
				"X-Request-ID",
				"X-GitHub-RateLimit-Limit",
				"X-GitHub-RateLimit-Remaining",
			},
		}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/ping"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(30 * 1e9), // 30s
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	// middleware expects write func(w http.ResponseWriter, status int, body any)
	// use phttp.JSON which matches that signature
	return middleware.Auth(p, phttp.JSON)
}
