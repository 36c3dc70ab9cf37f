package handlers

import (
	"context"
	"html/template"

	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

// InstallerResolver is what both consumers need from the release resolver
type InstallerResolver interface {
	Resolve(ctx context.Context, projectID string, p release.Policy) (release.Outcome, error)
}

// Deps carries everything the router wires into its handlers
type Deps struct {
	Resolver  InstallerResolver
	ProjectID string
	Policy    release.Policy
	RateLimit float64
	RateBurst int
	Logger    *logger.Logger
}

// ErrorResponse is the JSON body of every non-redirect download answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// DownloadHandler redirects to the newest installer
type DownloadHandler struct {
	resolver  InstallerResolver
	projectID string
	policy    release.Policy
	log       *logger.Logger
}

// PageHandler renders the download page
type PageHandler struct {
	resolver  InstallerResolver
	projectID string
	policy    release.Policy
	page      *template.Template
	content   pageContent
	log       *logger.Logger
}

// pageState is exposed on the download control for styling and tests
type pageState string

const (
	stateAvailable   pageState = "available"
	stateComingSoon  pageState = "coming-soon"
	stateUnavailable pageState = "unavailable"
)

type pageContent struct {
	Intro template.HTML
	Guide template.HTML
	API   template.HTML
}

type pageData struct {
	pageContent
	Title       string
	Description string
	URL         string
	State       pageState
	Placeholder string
}
