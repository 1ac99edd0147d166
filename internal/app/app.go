package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gautamkumarcode/propmize-admin/internal/config"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/auth"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/database"
	"github.com/gautamkumarcode/propmize-admin/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run serves the dashboard API until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("shutdown: closing resources failed", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// SSE streams end when their workspaces close.
		c.Registry.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Migrate creates or updates the database schema
func Migrate(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Open(cfg.DSN, cfg.LogLevel == "debug")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	logger.Info("database migrated")
	return nil
}

// SeedPolicies installs the default role rules when none exist
func SeedPolicies(cfg *config.Config, logger *zap.Logger) (int, error) {
	db, err := database.Open(cfg.DSN, cfg.LogLevel == "debug")
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	cas, err := auth.NewCasbinService(db, cfg.CasbinModelPath)
	if err != nil {
		return 0, err
	}
	added, err := services.NewPolicyService(cas.E).SeedDefaults()
	if err != nil {
		return added, err
	}
	logger.Info("policies seeded", zap.Int("added", added))
	return added, nil
}
