package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/move-estimator/internal/api"
	"github.com/eugenenazirov/move-estimator/internal/catalog"
	"github.com/eugenenazirov/move-estimator/internal/config"
	"github.com/eugenenazirov/move-estimator/internal/distance"
	"github.com/eugenenazirov/move-estimator/internal/estimator"
	"github.com/eugenenazirov/move-estimator/internal/policy"
	"github.com/eugenenazirov/move-estimator/internal/store"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	policies  *policy.Store
	catalog   *catalog.Cache
	engine    *estimator.Engine
	estimates api.EstimateRepository
	db        *store.Store
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	snap, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	policies, err := policy.NewStore(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to publish policy: %w", err)
	}
	logger.Info("policy loaded",
		zap.String("version", snap.Version),
		zap.String("source", policySource(cfg.PolicyFile)),
		zap.Int("truck_specs", len(snap.ActiveTruckSpecs())),
		zap.Int("furniture", len(snap.Furniture)),
	)

	furniture := catalog.New(func() ([]policy.Furniture, error) {
		return policies.Current().FurnitureList(), nil
	})
	engine := estimator.New(logger.Named("estimator"))

	app := &App{
		policies: policies,
		catalog:  furniture,
		engine:   engine,
		logger:   logger,
	}

	if cfg.DBPath != "" {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open estimate store: %w", err)
		}
		if err := db.Migrate(ctx, logger.Named("migrate")); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate estimate store: %w", err)
		}
		app.db = db
		app.estimates = db
	} else {
		logger.Warn("no database path configured, estimates are kept in memory")
		app.estimates = store.NewMemory()
	}

	opts := []api.HandlerOption{
		api.WithEstimateRepository(app.estimates),
		api.WithHandlerLogger(logger.Named("api")),
		api.WithPolicyLoader(func() (*policy.Snapshot, error) {
			return LoadPolicy(cfg.PolicyFile)
		}),
	}
	if len(cfg.Distances) > 0 {
		routes, err := distance.NewStaticProvider(cfg.Distances)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to build distance table: %w", err)
		}
		opts = append(opts, api.WithDistanceProvider(routes))
	}

	app.handler = api.NewHandler(policies, furniture, engine, opts...)
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	app.server = NewServer(cfg, BuildRootHandler(app.router))

	return app, nil
}

// LoadPolicy reads the policy file, or the bundled default when path is empty.
func LoadPolicy(path string) (*policy.Snapshot, error) {
	if path == "" {
		return policy.Default()
	}
	snap, err := policy.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy %s: %w", path, err)
	}
	return snap, nil
}

func policySource(path string) string {
	if path == "" {
		return "bundled"
	}
	return path
}

// BuildRootHandler mounts the API under /api/ and answers 404 elsewhere.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Engine exposes the estimator.
func (a *App) Engine() *estimator.Engine {
	return a.engine
}

// Handler exposes the API handler for offline quoting.
func (a *App) Handler() *api.Handler {
	return a.handler
}

// Policies exposes the policy store.
func (a *App) Policies() *policy.Store {
	return a.policies
}

// Close releases the database handle, if any.
func (a *App) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close estimate store", zap.Error(err))
	}
	a.db = nil
}
