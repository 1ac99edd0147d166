package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gautamkumarcode/propmize-admin/domain"
	"github.com/gautamkumarcode/propmize-admin/internal/config"
	httpx "github.com/gautamkumarcode/propmize-admin/internal/http"
	"github.com/gautamkumarcode/propmize-admin/internal/http/handlers"
	"github.com/gautamkumarcode/propmize-admin/internal/http/middleware"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/audit"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/auth"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/backend"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/database"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/repositories"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/storage"
	"github.com/gautamkumarcode/propmize-admin/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// sseKeepAlive is the heartbeat interval on notification streams
const sseKeepAlive = 25 * time.Second

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB         *gorm.DB
	Redis      *database.RedisClient
	HTTPClient *http.Client
	Casbin     *auth.CasbinService

	// Services
	TokenSvc  domain.TokenService
	PolicySvc *services.PolicyServiceImpl
	Audit     domain.AuditLogger
	Cache     domain.NotificationCache
	Registry  *services.WorkspaceRegistry

	tokens storage.Factory
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initDatabase(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initStorage(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN, c.Config.LogLevel == "debug")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.DB = db

	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	switch c.Config.StorageDriver {
	case "redis":
		c.Redis = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
		if err := c.Redis.Ping(ctx); err != nil {
			return err
		}
		c.tokens = storage.RedisFactory(c.Redis.Client, c.Config.StorageTTL)
	case "memory":
		c.Logger.Warn("token storage is in memory; sessions will not survive a restart")
		c.tokens = storage.MemoryFactory()
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Config.StorageDriver)
	}
	return nil
}

func (c *Container) initServices() error {
	cas, err := auth.NewCasbinService(c.DB, c.Config.CasbinModelPath)
	if err != nil {
		return err
	}
	c.Casbin = cas
	c.PolicySvc = services.NewPolicyService(cas.E)

	added, err := c.PolicySvc.SeedDefaults()
	if err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}
	if added > 0 {
		c.Logger.Info("casbin: seeded default policies", zap.Int("count", added))
	}

	c.TokenSvc = auth.NewJWTService(c.Config.ClientSecret, c.Config.ClientIssuer, c.Config.ClientSessionTTL)
	c.Audit = audit.NewZapAuditLogger(c.Logger.Named("audit"))
	c.Cache = repositories.NewNotificationRepository(c.DB)
	c.HTTPClient = backend.NewHTTPClient(c.Config.BackendTimeout)

	registry, err := services.NewWorkspaceRegistry(c.Config.MaxClients, c.BuildWorkspace, c.Logger)
	if err != nil {
		return err
	}
	c.Registry = registry
	return nil
}

// BuildWorkspace wires the backend client and stores of one dashboard client
func (c *Container) BuildWorkspace(clientID string) *services.Workspace {
	tokens := c.tokens(clientID)
	api := backend.NewClient(c.HTTPClient, backend.Options{
		BaseURL:        c.Config.BackendURL,
		QueryRetries:   c.Config.QueryRetries,
		RetryBaseDelay: c.Config.RetryBaseDelay,
		RetryMaxDelay:  c.Config.RetryMaxDelay,
		AccessTokenKey: c.Config.AccessTokenKey,
	}, tokens, c.Logger.Named("backend"))

	return services.NewWorkspace(clientID, services.WorkspaceDeps{
		Auth:          api,
		Notifications: api,
		Tokens:        tokens,
		Cache:         c.Cache,
		Audit:         c.Audit,
		Logger:        c.Logger,
		Session: services.SessionConfig{
			AccessTokenKey:  c.Config.AccessTokenKey,
			RefreshTokenKey: c.Config.RefreshTokenKey,
			AdminPortal:     c.Config.AdminPortal,
		},
		PollInterval: c.Config.PollInterval,
	})
}

// Router builds the HTTP handler
func (c *Container) Router() *gin.Engine {
	return httpx.BuildRouter(
		handlers.NewAuthHandlers(c.Logger),
		handlers.NewNotificationHandlers(sseKeepAlive, c.Logger),
		handlers.NewPolicyHandlers(c.PolicySvc),
		middleware.NewClientSessionMW(c.TokenSvc, c.Registry, middleware.CookieOptions{
			Name:   c.Config.CookieName,
			TTL:    c.Config.ClientSessionTTL,
			Secure: c.Config.CookieSecure,
		}, c.Logger),
		middleware.NewCasbinMW(c.PolicySvc, c.Audit, c.Logger),
		c.Logger,
	)
}

// Close closes all workspaces and connections
func (c *Container) Close() error {
	if c.Registry != nil {
		c.Registry.Close()
	}

	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
