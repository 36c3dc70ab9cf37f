package handlers

import (
	"fmt"
	"net/http"

	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

// NewRouter registers every route and wraps them in the middleware chain
func NewRouter(deps Deps) (http.Handler, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewLogger("http")
	}

	page, err := NewPageHandler(deps.Resolver, deps.ProjectID, deps.Policy, logger.NewLogger("page"))
	if err != nil {
		return nil, fmt.Errorf("failed to create page handler: %w", err)
	}
	download := NewDownloadHandler(deps.Resolver, deps.ProjectID, deps.Policy, logger.NewLogger("download"))

	limit := rateLimited(deps.RateLimit, deps.RateBurst)

	mux := http.NewServeMux()
	mux.Handle("GET /api/download", limit(download))
	mux.Handle("GET /download", limit(page))
	mux.Handle("GET /{$}", limit(page))
	mux.HandleFunc("GET /healthz", HealthHandler)

	return withRequestID(withAccessLog(log, withRecover(log, mux))), nil
}
