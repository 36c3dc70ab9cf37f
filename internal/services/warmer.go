package services

import (
	"context"
	"sync"
	"time"

	"github.com/leoprim/ranked-tracker-web/internal/release"
	"github.com/leoprim/ranked-tracker-web/pkg/helper"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
)

const (
	// WarmTimeout bounds a single background resolution
	WarmTimeout = 30 * time.Second
	stopTimeout = 5 * time.Second
)

// Resolver is the subset of release.Resolver the warmer needs
type Resolver interface {
	Resolve(ctx context.Context, projectID string, p release.Policy) (release.Outcome, error)
}

// WarmerService periodically resolves the configured project so the
// release cache stays fresh and the current installer is visible in logs
type WarmerService struct {
	logger    *logger.Logger
	resolver  Resolver
	projectID string
	policy    release.Policy
	interval  time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool

	last release.Outcome
	runs int
}

// NewWarmerService creates a warmer; an interval of zero keeps it disabled
func NewWarmerService(baseLogger *logger.Logger, resolver Resolver, projectID string, policy release.Policy, interval time.Duration) *WarmerService {
	return &WarmerService{
		logger:    baseLogger,
		resolver:  resolver,
		projectID: projectID,
		policy:    policy,
		interval:  interval,
	}
}

// Enabled reports whether Start will do anything
func (w *WarmerService) Enabled() bool {
	return w.interval > 0
}

// Start begins the warm loop
func (w *WarmerService) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.Enabled() {
		w.logger.Debug("Cache warmer disabled")
		return
	}
	if w.running {
		w.logger.Warn("Cache warmer is already running")
		return
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.running = true

	w.wg.Add(1)
	go w.run(w.ctx)

	w.logger.WithFields(logger.Fields{
		"interval": w.interval.String(),
		"project":  w.projectID,
	}).Info("Cache warmer started")
}

// Stop cancels the loop and waits for it with a timeout
func (w *WarmerService) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Cache warmer stopped")
	case <-time.After(stopTimeout):
		w.logger.Warn("Cache warmer stop timed out")
	}
}

// Last returns the most recent outcome and how many rounds completed
func (w *WarmerService) Last() (release.Outcome, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.runs
}

func (w *WarmerService) run(ctx context.Context) {
	defer helper.RecoverPanic(w.logger, "cache-warmer")
	defer w.wg.Done()

	w.warm(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Cache warmer context cancelled")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *WarmerService) warm(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, WarmTimeout)
	defer cancel()

	outcome, err := w.resolver.Resolve(ctx, w.projectID, w.policy)
	if err != nil {
		if ctx.Err() != nil && release.IsTransport(err) {
			// shutting down or timed out; the next round will retry
			w.logger.WithError(err).Debug("Cache warm interrupted")
			return
		}
		w.logger.WithError(err).Warn("Cache warm failed")
		return
	}

	w.mu.Lock()
	changed := w.runs == 0 || w.last != outcome
	w.last = outcome
	w.runs++
	w.mu.Unlock()

	entry := w.logger.WithFields(logger.Fields{
		"project": w.projectID,
		"outcome": outcome.String(),
	})
	if changed {
		entry.Info("Latest installer resolved")
	} else {
		entry.Debug("Latest installer unchanged")
	}
}
