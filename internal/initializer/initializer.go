package initializer

import (
	"fmt"

	"github.com/leoprim/ranked-tracker-web/internal/config"
	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/internal/upstream"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

// Stack is the release resolution chain built from configuration:
// resolver -> cache -> breaker -> GitHub
type Stack struct {
	Resolver *release.Resolver
	Cache    *upstream.CachedSource
	Breaker  *upstream.BreakerSource
	GitHub   *upstream.GitHubSource
}

// NewStack wires the upstream collaborators and the resolver
func NewStack(cfg *config.Config) (*Stack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	gh, err := upstream.NewGitHubSource(cfg.GitHub, logger.NewLogger("github"))
	if err != nil {
		return nil, fmt.Errorf("failed to create github source: %w", err)
	}

	stack := &Stack{GitHub: gh}

	var src release.Source = gh
	if cfg.Breaker.Enabled {
		stack.Breaker = upstream.NewBreakerSource(src, cfg.Breaker, logger.NewLogger("breaker"))
		src = stack.Breaker
	}

	// cache sits outside the breaker so fresh listings are served while it is open
	stack.Cache = upstream.NewCachedSource(src, cfg.Cache.TTL, logger.NewLogger("cache"))
	stack.Resolver = release.NewResolver(stack.Cache, logger.NewLogger("resolver"))

	return stack, nil
}
