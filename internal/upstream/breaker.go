package upstream

import (
	"context"
	"errors"

	"github.com/leoprim/ranked-tracker-web/internal/config"
	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"github.com/sony/gobreaker"
)

// BreakerSource fails fast once the wrapped source keeps failing to answer.
// Only transport failures trip it; a malformed body means upstream is up.
type BreakerSource struct {
	next    release.Source
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewBreakerSource wraps next with a circuit breaker configured from cfg
func NewBreakerSource(next release.Source, cfg config.BreakerConfig, log *logger.Logger) *BreakerSource {
	if log == nil {
		log = logger.NewLogger("breaker")
	}

	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio

	settings := gobreaker.Settings{
		Name:    "github-releases",
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= ratio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !release.IsTransport(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logger.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &BreakerSource{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

// ListReleases delegates to the wrapped source unless the breaker is open
func (b *BreakerSource) ListReleases(ctx context.Context, project string, pageSize int) ([]release.Release, error) {
	res, err := b.breaker.Execute(func() (any, error) {
		return b.next.ListReleases(ctx, project, pageSize)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &release.TransportError{Project: project, Err: err}
		}
		return nil, err
	}
	return res.([]release.Release), nil
}

// State reports the breaker state
func (b *BreakerSource) State() string {
	return b.breaker.State().String()
}
