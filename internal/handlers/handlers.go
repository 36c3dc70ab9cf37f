package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

const (
	msgNotFound  = "No installer found. Check back after the first release."
	msgTransport = "Failed to fetch releases"
	msgInternal  = "Internal server error"
)

// NewDownloadHandler creates the redirect endpoint handler
func NewDownloadHandler(resolver InstallerResolver, projectID string, policy release.Policy, log *logger.Logger) *DownloadHandler {
	if log == nil {
		log = logger.NewLogger("download")
	}
	return &DownloadHandler{
		resolver:  resolver,
		projectID: projectID,
		policy:    policy,
		log:       log,
	}
}

// ServeHTTP answers 302 to the installer, 404 when none is published, 502
// when upstream could not be asked and 500 for anything else.
func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	outcome, err := h.resolver.Resolve(r.Context(), h.projectID, h.policy)
	entry := h.log.WithFields(logger.Fields{
		"project":    h.projectID,
		"request_id": RequestID(r.Context()),
	})

	switch {
	case err == nil && outcome.IsFound():
		entry.WithField("url", outcome.URL()).Debug("Redirecting to installer")
		http.Redirect(w, r, outcome.URL(), http.StatusFound)
	case err == nil:
		entry.Info("No installer release found")
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: msgNotFound})
	case release.IsTransport(err):
		entry.WithError(err).Warn("Upstream release listing unavailable")
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: msgTransport})
	default:
		entry.WithError(err).Error("Failed to resolve installer")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	}
}

// HealthHandler reports liveness
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
