package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/leoprim/ranked-tracker-web/internal/config"
	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"golang.org/x/oauth2"
)

const (
	userAgent      = "ranked-tracker-web"
	defaultTimeout = 10 * time.Second
)

// GitHubSource lists releases through the GitHub REST API
type GitHubSource struct {
	client  *github.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewGitHubSource creates a release source for the configured GitHub API.
// A token, when set, is sent as a bearer credential for higher rate limits.
func NewGitHubSource(cfg config.GitHubConfig, log *logger.Logger) (*GitHubSource, error) {
	if log == nil {
		log = logger.NewLogger("github")
	}

	httpClient := &http.Client{}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(httpClient)
	client.UserAgent = userAgent

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GitHubSource{
		client:  client,
		timeout: timeout,
		log:     log,
	}, nil
}

// ListReleases returns the first page of releases of project (owner/repo),
// newest first, as ordered by GitHub.
func (s *GitHubSource) ListReleases(ctx context.Context, project string, pageSize int) ([]release.Release, error) {
	owner, repo, err := splitProject(project)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rels, resp, err := s.client.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{
		Page:    1,
		PerPage: pageSize,
	})

	fields := logger.Fields{
		"project":   project,
		"page_size": pageSize,
		"duration":  time.Since(start).String(),
	}
	if resp != nil && resp.Response != nil {
		fields["status"] = resp.StatusCode
		fields["rate_remaining"] = resp.Rate.Remaining
	}

	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("Failed to list releases")
		return nil, classify(project, resp, err)
	}
	if rels == nil {
		// go-github decodes an empty body as no error and no slice
		return nil, &release.MalformedResponseError{Project: project, Err: errors.New("empty release listing body")}
	}

	out, err := convert(project, rels)
	if err != nil {
		return nil, err
	}

	fields["releases"] = len(out)
	s.log.WithFields(fields).Debug("Listed releases")

	return out, nil
}

func convert(project string, rels []*github.RepositoryRelease) ([]release.Release, error) {
	out := make([]release.Release, 0, len(rels))
	for i, rel := range rels {
		if rel == nil {
			return nil, &release.MalformedResponseError{Project: project, Err: fmt.Errorf("release %d is null", i)}
		}

		r := release.Release{
			Tag:    rel.GetTagName(),
			Assets: make([]release.Asset, 0, len(rel.Assets)),
		}
		for _, asset := range rel.Assets {
			if asset == nil {
				return nil, &release.MalformedResponseError{
					Project: project,
					Err:     fmt.Errorf("release %s has a null asset", r.Tag),
				}
			}
			r.Assets = append(r.Assets, release.Asset{
				Name: asset.GetName(),
				URL:  asset.GetBrowserDownloadURL(),
			})
		}
		out = append(out, r)
	}
	return out, nil
}

func classify(project string, resp *github.Response, err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &release.MalformedResponseError{Project: project, Err: err}
	}

	te := &release.TransportError{Project: project, Err: err}
	if resp != nil && resp.Response != nil {
		te.StatusCode = resp.StatusCode
	}
	return te
}

func splitProject(project string) (string, string, error) {
	owner, repo, ok := strings.Cut(project, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("project %q is not in owner/repo form", project)
	}
	return owner, repo, nil
}
