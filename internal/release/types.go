package release

import (
	"context"
	"fmt"
)

// DefaultPageSize is the number of most recent releases considered when a
// caller does not ask for a specific lookback.
const DefaultPageSize = 10

// Asset is a single downloadable file attached to a release
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Release is a published tag of the upstream project with its assets
type Release struct {
	Tag    string  `json:"tag"`
	Assets []Asset `json:"assets"`
}

// Policy holds the matching rules for the installer we want
type Policy struct {
	TagPrefix   string
	AssetSuffix string
	PageSize    int
}

// Source lists the most recent releases of a project, newest first.
// Implementations return at most pageSize releases from the first page only.
type Source interface {
	ListReleases(ctx context.Context, project string, pageSize int) ([]Release, error)
}

// Outcome is the result of a clean resolution: either Found with the
// installer URL or NotFound. The zero value is NotFound.
type Outcome struct {
	url   string
	found bool
}

// NotFound is returned when no release in the page qualified
var NotFound = Outcome{}

// Found returns an outcome pointing at the given installer URL
func Found(url string) Outcome {
	return Outcome{url: url, found: true}
}

// IsFound reports whether an installer was located
func (o Outcome) IsFound() bool {
	return o.found
}

// URL returns the installer URL, empty for NotFound
func (o Outcome) URL() string {
	return o.url
}

func (o Outcome) String() string {
	if !o.found {
		return "not-found"
	}
	return fmt.Sprintf("found(%s)", o.url)
}
