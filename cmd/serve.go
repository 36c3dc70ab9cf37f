package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/leoprim/ranked-tracker-web/internal/config"
	"github.com/leoprim/ranked-tracker-web/internal/handlers"
	"github.com/leoprim/ranked-tracker-web/internal/initializer"
	"github.com/leoprim/ranked-tracker-web/internal/services"
	"github.com/leoprim/ranked-tracker-web/pkg/logger"
	"github.com/spf13/cobra"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long:  `Start the HTTP server for the download page and the installer redirect endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewLogger("main")

		return NewServerManager(log, Cfg).Run()
	},
}

// ServerManager handles the lifecycle of the HTTP server
type ServerManager struct {
	cfg     *config.Config
	logger  *logger.Logger
	server  *http.Server
	warmer  *services.WarmerService
	ctx     context.Context
	cancel  context.CancelFunc
	sigChan chan os.Signal
}

// NewServerManager creates a new server manager
func NewServerManager(log *logger.Logger, cfg *config.Config) *ServerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &ServerManager{
		cfg:     cfg,
		logger:  log,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: make(chan os.Signal, 1),
	}
}

// Run serves until a signal arrives or the listener fails
func (m *ServerManager) Run() error {
	if err := m.initialize(); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	defer m.cleanup()

	go m.handleSignals()

	return m.serve()
}

// initialize builds the resolver stack and the HTTP server
func (m *ServerManager) initialize() error {
	if m.cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	stack, err := initializer.NewStack(m.cfg)
	if err != nil {
		return err
	}

	router, err := handlers.NewRouter(handlers.Deps{
		Resolver:  stack.Resolver,
		ProjectID: m.cfg.GitHub.Repo,
		Policy:    m.cfg.Policy(),
		RateLimit: m.cfg.Server.RateLimit,
		RateBurst: m.cfg.Server.RateBurst,
		Logger:    logger.NewLogger("http"),
	})
	if err != nil {
		return err
	}

	m.server = &http.Server{
		Addr:              m.cfg.Server.Listen,
		Handler:           router,
		ReadTimeout:       m.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: m.cfg.Server.ReadTimeout,
		WriteTimeout:      m.cfg.Server.WriteTimeout,
	}

	m.warmer = services.NewWarmerService(logger.NewLogger("warmer"), stack.Resolver,
		m.cfg.GitHub.Repo, m.cfg.Policy(), m.cfg.Cache.WarmInterval)

	signal.Notify(m.sigChan, syscall.SIGINT, syscall.SIGTERM)
	return nil
}

// serve listens and blocks until shutdown
func (m *ServerManager) serve() error {
	lis, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.server.Addr, err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := m.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	m.logger.WithFields(logger.Fields{
		"listen":       lis.Addr().String(),
		"project":      m.cfg.GitHub.Repo,
		"tag_prefix":   m.cfg.Release.TagPrefix,
		"asset_suffix": m.cfg.Release.AssetSuffix,
		"page_size":    m.cfg.Release.PageSize,
		"cache_ttl":    m.cfg.Cache.TTL.String(),
		"token":        m.cfg.GitHub.Token != "",
	}).Info("Server started")

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		m.logger.Warnf("Failed to notify systemd: %v", err)
	} else if sent {
		m.logger.Debug("Notified systemd readiness")
	}

	m.warmer.Start()

	select {
	case <-m.ctx.Done():
		return nil
	case err, ok := <-errChan:
		if ok && err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

// cleanup performs graceful shutdown
func (m *ServerManager) cleanup() {
	m.logger.Info("Shutting down...")

	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		m.logger.Debugf("Failed to notify systemd: %v", err)
	}

	if m.warmer != nil {
		m.warmer.Stop()
	}

	if m.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout())
		defer cancel()

		if err := m.server.Shutdown(shutdownCtx); err != nil {
			m.logger.Errorf("Graceful shutdown failed: %v", err)
			_ = m.server.Close()
		}
	}

	signal.Stop(m.sigChan)
	close(m.sigChan)
	m.cancel()

	m.logger.Info("Shutdown completed")
}

func (m *ServerManager) shutdownTimeout() time.Duration {
	if m.cfg.Server.ShutdownTimeout > 0 {
		return m.cfg.Server.ShutdownTimeout
	}
	return 5 * time.Second
}

// handleSignals handles OS signals
func (m *ServerManager) handleSignals() {
	for {
		select {
		case sig, ok := <-m.sigChan:
			if !ok {
				return
			}
			m.logger.Warnf("Received signal %s, initiating shutdown...", sig)
			m.cancel()
			return
		case <-m.ctx.Done():
			return
		}
	}
}

func init() {
	RootCmd.AddCommand(ServeCmd)
}
