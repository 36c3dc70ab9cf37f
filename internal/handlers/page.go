package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"github.com/russross/blackfriday/v2"
)

const (
	pageTitle       = "Download SR Tracker for OBS"
	pageDescription = "Download the SR Tracker OBS plugin and show your Warzone Ranked Play SR on stream."

	placeholderComingSoon  = "Coming soon"
	placeholderUnavailable = "Temporarily unavailable"
)

//go:embed templates/download.html content/*.md
var assets embed.FS

// NewPageHandler parses the embedded page and its copy
func NewPageHandler(resolver InstallerResolver, projectID string, policy release.Policy, log *logger.Logger) (*PageHandler, error) {
	if log == nil {
		log = logger.NewLogger("page")
	}

	page, err := template.ParseFS(assets, "templates/download.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	var content pageContent
	for name, dst := range map[string]*template.HTML{
		"content/intro.md": &content.Intro,
		"content/guide.md": &content.Guide,
		"content/api.md":   &content.API,
	} {
		md, err := assets.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		// embedded copy is trusted
		*dst = template.HTML(blackfriday.Run(md))
	}

	return &PageHandler{
		resolver:  resolver,
		projectID: projectID,
		policy:    policy,
		page:      page,
		content:   content,
		log:       log,
	}, nil
}

// ServeHTTP renders the page with an active download control when an
// installer exists and a disabled one otherwise. Errors never reach the page.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		pageContent: h.content,
		Title:       pageTitle,
		Description: pageDescription,
	}

	outcome, err := h.resolver.Resolve(r.Context(), h.projectID, h.policy)
	switch {
	case err != nil:
		h.log.WithFields(logger.Fields{
			"project":    h.projectID,
			"request_id": RequestID(r.Context()),
			"transport":  release.IsTransport(err),
		}).WithError(err).Warn("Rendering download page without installer")
		data.State = stateUnavailable
		data.Placeholder = placeholderUnavailable
	case outcome.IsFound():
		data.State = stateAvailable
		data.URL = outcome.URL()
	default:
		data.State = stateComingSoon
		data.Placeholder = placeholderComingSoon
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.log.WithError(err).Error("Failed to render download page")
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
