package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gautamkumarcode/propmize-admin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	modelPath, err := filepath.Abs(filepath.Join("..", "..", "config", "rbac_model.conf"))
	require.NoError(t, err)

	return &config.Config{
		Port:             "0",
		GinMode:          "test",
		LogLevel:         "info",
		BackendURL:       "http://127.0.0.1:1/api",
		BackendTimeout:   time.Second,
		QueryRetries:     1,
		RetryBaseDelay:   time.Millisecond,
		RetryMaxDelay:    time.Millisecond,
		DSN:              "sqlite:" + filepath.Join(t.TempDir(), "admin.db"),
		StorageDriver:    "memory",
		AccessTokenKey:   "accessToken",
		RefreshTokenKey:  "refreshToken",
		StorageTTL:       time.Hour,
		ClientSecret:     "test-secret",
		ClientIssuer:     "propmize-admin",
		ClientSessionTTL: time.Hour,
		CookieName:       "propmize_client",
		MaxClients:       4,
		PollInterval:     time.Minute,
		CasbinModelPath:  modelPath,
	}
}

func TestNewContainer_Memory(t *testing.T) {
	cfg := testConfig(t)

	c, err := NewContainer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.Len(t, c.PolicySvc.GetPolicies(), 5, "defaults are seeded into an empty table")

	r := c.Router()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Result().Cookies())
	assert.Equal(t, 1, c.Registry.Len())
}

func TestNewContainer_UnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "localstorage"

	_, err := NewContainer(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestMigrateAndSeed(t *testing.T) {
	cfg := testConfig(t)
	logger := zap.NewNop()

	require.NoError(t, Migrate(cfg, logger))

	added, err := SeedPolicies(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	added, err = SeedPolicies(cfg, logger)
	require.NoError(t, err)
	assert.Zero(t, added, "seeding is a no-op once rules exist")
}
