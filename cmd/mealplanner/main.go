package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "mealplanner/internal/adapter/http"
	"mealplanner/internal/adapter/memory"
	"mealplanner/internal/adapter/postgres"
	"mealplanner/internal/app"
	"mealplanner/internal/config"
	"mealplanner/internal/domain"

	"go.uber.org/zap"
)

const sessionPurgeInterval = time.Hour

type storage struct {
	catalog  domain.RecipeCatalog
	meals    domain.MealRepository
	profiles domain.ProfileRepository
	users    domain.UserRepository
	sessions domain.SessionRepository
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Production() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.close() }()

	var rnd app.RandomSource
	if cfg.RandomSeed != nil {
		seed := *cfg.RandomSeed
		rnd = app.NewSeededRandom(seed)
		logger.Info("recipe selection seeded", zap.Uint64("seed", seed))
	}

	generator := app.NewPlanGenerator(store.catalog, rnd, logger.Named("planner"))
	authSvc := app.NewAuthService(store.users, store.sessions, logger.Named("auth"))
	srv := adapthttp.New(
		authSvc,
		app.NewProfileService(store.profiles, logger.Named("profile")),
		app.NewMealService(store.catalog, store.meals, store.profiles, logger.Named("meals")),
		app.NewMaintenanceService(store.catalog, store.meals, store.profiles, generator, logger.Named("maintenance")),
		app.NewShoppingService(store.catalog, store.meals),
		logger.Named("http"),
	).WithCORS(cfg.CORSOrigins)

	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
		logger.Info("sso enabled", zap.String("issuer", cfg.OIDC.Issuer))
	}

	go purgeSessions(ctx, authSvc, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("storage", cfg.Storage))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		db := memory.New()
		if cfg.RecipesFile != "" {
			n, err := db.LoadRecipesFile(cfg.RecipesFile)
			if err != nil {
				return nil, fmt.Errorf("load recipes: %w", err)
			}
			logger.Info("recipes loaded", zap.Int("count", n), zap.String("file", cfg.RecipesFile))
		}
		return &storage{
			catalog: db, meals: db, profiles: db, users: db,
			sessions: db.NewSessionRepo(),
			close:    func() error { return nil },
		}, nil

	case config.StoragePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		if cfg.RecipesFile != "" {
			if err := importRecipes(ctx, db, cfg.RecipesFile); err != nil {
				_ = db.Close()
				return nil, err
			}
			logger.Info("recipes imported", zap.String("file", cfg.RecipesFile))
		}
		return &storage{
			catalog: db, meals: db, profiles: db, users: db,
			sessions: postgres.NewSessionRepo(db),
			close:    db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

func importRecipes(ctx context.Context, db *postgres.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recipes: %w", err)
	}
	defer f.Close() //nolint:errcheck

	recipes, err := memory.LoadRecipes(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return db.ImportRecipes(ctx, recipes)
}

func purgeSessions(ctx context.Context, authSvc *app.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authSvc.PurgeExpiredSessions(ctx); err != nil {
				logger.Warn("session purge failed", zap.Error(err))
			}
		}
	}
}
