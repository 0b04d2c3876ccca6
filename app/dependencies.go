package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/session-gateway/auth"
	"github.com/upb/session-gateway/config"
	"github.com/upb/session-gateway/internal/observability"
	"github.com/upb/session-gateway/middleware"
	"github.com/upb/session-gateway/provider"
	"github.com/upb/session-gateway/repositories/postgres"
	"github.com/upb/session-gateway/services/audit"
	"go.uber.org/zap"
)

const auditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection; everything in
// it is built once at startup and read-only afterwards.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Audit store (nil when DATABASE_URL is unset)
	RepoFactory *postgres.RepositoryFactory
	Audit       *audit.AuditService

	// Identity provider. ProviderClient is nil when credentials are missing,
	// in which case Provider rejects every session.
	ProviderClient *provider.Client
	Provider       auth.SessionProvider

	// Auth
	Cookies           *auth.CookieManager
	Guard             *auth.Guard
	SessionMiddleware *middleware.SessionMiddleware
	Recorder          audit.Recorder
	History           *audit.HistoryService
	authHandler       *auth.Handler
}

// AuthHandler returns the auth handler for route wiring (implements handlers.AuthDeps)
func (d *Dependencies) AuthHandler() *auth.Handler {
	return d.authHandler
}

// Option customizes dependency construction
type Option func(*Dependencies)

// WithSessionProvider uses p instead of building a provider client from config.
func WithSessionProvider(p auth.SessionProvider) Option {
	return func(d *Dependencies) {
		d.Provider = p
	}
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Recorder: audit.NopRecorder{},
		History:  audit.NewHistoryService(nil),
	}
	for _, opt := range opts {
		opt(deps)
	}

	if cfg.Database != nil {
		if err := deps.initAudit(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to initialize audit store: %w", err)
		}
	} else {
		logger.Info("DATABASE_URL not set, auth audit trail disabled")
	}

	if err := deps.initProvider(cfg); err != nil {
		deps.closeAudit()
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}

	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initAudit connects the audit store and starts the audit workers
func (d *Dependencies) initAudit(ctx context.Context, dbCfg *config.DatabaseConfig) error {
	factory, err := postgres.NewRepositoryFactory(*dbCfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	repos := factory.NewRepositories()
	service := audit.NewAuditService(repos.AuthEvents, d.Logger, audit.DefaultConfig())
	if err := service.Start(); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	d.RepoFactory = factory
	d.Audit = service
	d.Recorder = service
	d.History = audit.NewHistoryService(repos.AuthEvents)

	d.Logger.Info("auth audit trail enabled",
		zap.String("connection", dbCfg.LogString()))
	return nil
}

// initProvider builds the provider client, or the rejecting stand-in when
// credentials are missing
func (d *Dependencies) initProvider(cfg *config.Config) error {
	if d.Provider != nil {
		return nil
	}
	if !cfg.Provider.IsConfigured() {
		d.Logger.Warn("identity provider not configured, auth endpoints disabled")
		d.Provider = auth.UnconfiguredProvider{}
		return nil
	}

	client, err := provider.NewClient(cfg.Provider, d.Logger, provider.WithObserver(d.Metrics))
	if err != nil {
		return err
	}
	d.ProviderClient = client
	d.Provider = client
	d.Logger.Info("identity provider client initialized",
		zap.String("base_url", cfg.Provider.BaseURL))
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.Cookies = auth.NewCookieManager(cfg.Session.CookieName)
	d.Guard = auth.NewGuard(d.Provider, d.Metrics, d.Logger)
	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Guard, d.Cookies, d.Recorder, d.Logger)
	d.authHandler = auth.NewHandler(d.Provider, d.Cookies, d.Recorder, cfg.Provider, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Audit != nil {
		timeout := auditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

// closeAudit releases the audit store after a failed startup
func (d *Dependencies) closeAudit() {
	if d.Audit != nil {
		_ = d.Audit.Stop(auditStopTimeout)
	}
	if d.RepoFactory != nil {
		_ = d.RepoFactory.Close()
	}
}
