package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

// Resolver finds the newest installer among a project's recent releases
type Resolver struct {
	source Source
	log    *logger.Logger
}

// NewResolver creates a resolver reading releases from source
func NewResolver(source Source, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewLogger("resolver")
	}
	return &Resolver{
		source: source,
		log:    log,
	}
}

// Resolve is ResolveLatestInstaller with the matching rules taken from p
func (r *Resolver) Resolve(ctx context.Context, projectID string, p Policy) (Outcome, error) {
	return r.ResolveLatestInstaller(ctx, projectID, p.TagPrefix, p.AssetSuffix, p.PageSize)
}

// ResolveLatestInstaller fetches the most recent pageSize releases of
// projectID and returns the first installer matching the tag prefix and
// asset suffix. Errors are *TransportError, *MalformedResponseError or
// whatever the source returned for invalid input; NotFound is not an error.
func (r *Resolver) ResolveLatestInstaller(ctx context.Context, projectID, tagPrefix, assetSuffix string, pageSize int) (Outcome, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	releases, err := r.source.ListReleases(ctx, projectID, pageSize)
	if err != nil {
		r.log.WithFields(logger.Fields{
			"project": projectID,
			"error":   err,
		}).Debug("Release listing failed")
		return NotFound, err
	}

	// Only the first page counts, even if the source handed back more.
	if len(releases) > pageSize {
		releases = releases[:pageSize]
	}

	outcome := NotFound
	if tag, asset, ok := selectAsset(releases, tagPrefix, assetSuffix); ok {
		// only the chosen asset has to carry a download location
		if asset.URL == "" {
			return NotFound, &MalformedResponseError{
				Project: projectID,
				Err:     fmt.Errorf("asset %s of release %s has no download url", asset.Name, tag),
			}
		}
		outcome = Found(asset.URL)
	}

	r.log.WithFields(logger.Fields{
		"project":      projectID,
		"tag_prefix":   tagPrefix,
		"asset_suffix": assetSuffix,
		"page_size":    pageSize,
		"releases":     len(releases),
		"outcome":      outcome.String(),
	}).Debug("Resolved latest installer")

	return outcome, nil
}

// Select walks releases in the given order and returns the first asset
// ending in assetSuffix from the first release tagged with tagPrefix that
// has one. Releases without a matching asset are skipped.
func Select(releases []Release, tagPrefix, assetSuffix string) Outcome {
	if _, asset, ok := selectAsset(releases, tagPrefix, assetSuffix); ok {
		return Found(asset.URL)
	}
	return NotFound
}

func selectAsset(releases []Release, tagPrefix, assetSuffix string) (string, Asset, bool) {
	for _, rel := range releases {
		if !strings.HasPrefix(rel.Tag, tagPrefix) {
			continue
		}

		for _, asset := range rel.Assets {
			if strings.HasSuffix(asset.Name, assetSuffix) {
				return rel.Tag, asset, true
			}
		}
	}

	return "", Asset{}, false
}
