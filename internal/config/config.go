package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given
const DefaultPath = "config/config.yml"

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	Timeout        string `yaml:"timeout"`
	AdminPortal    bool   `yaml:"admin_portal"`
	QueryRetries   int    `yaml:"query_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
	RetryMaxDelay  string `yaml:"retry_max_delay"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	// Driver is "redis" or "memory".
	Driver          string `yaml:"driver"`
	AccessTokenKey  string `yaml:"access_token_key"`
	RefreshTokenKey string `yaml:"refresh_token_key"`
	TTL             string `yaml:"ttl"`
}

type ClientSessionConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	TTL        string `yaml:"ttl"`
	CookieName string `yaml:"cookie_name"`
	Secure     bool   `yaml:"secure"`
	MaxClients int    `yaml:"max_clients"`
}

type NotificationsConfig struct {
	PollInterval string `yaml:"poll_interval"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App           AppConfig           `yaml:"app"`
	Log           LogConfig           `yaml:"log"`
	Backend       BackendConfig       `yaml:"backend"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Storage       StorageConfig       `yaml:"storage"`
	ClientSession ClientSessionConfig `yaml:"client_session"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Casbin        CasbinConfig        `yaml:"casbin"`
}

type Config struct {
	Port    string
	GinMode string

	LogLevel       string
	LogDevelopment bool

	BackendURL     string
	BackendTimeout time.Duration
	AdminPortal    bool
	QueryRetries   int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StorageDriver   string
	AccessTokenKey  string
	RefreshTokenKey string
	StorageTTL      time.Duration

	ClientSecret     string
	ClientIssuer     string
	ClientSessionTTL time.Duration
	CookieName       string
	CookieSecure     bool
	MaxClients       int

	PollInterval time.Duration

	CasbinModelPath string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Load reads the yaml config file at path and applies PROPMIZE_* environment overrides
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	configFile, err := loadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return FromFile(configFile)
}

// FromFile converts a parsed config file into Config, applying defaults and env overrides
func FromFile(f *ConfigFile) (*Config, error) {
	applyDefaults(f)

	timeout, err := time.ParseDuration(env("PROPMIZE_BACKEND_TIMEOUT", f.Backend.Timeout))
	if err != nil {
		return nil, fmt.Errorf("invalid backend timeout: %w", err)
	}

	baseDelay, err := time.ParseDuration(f.Backend.RetryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry base delay: %w", err)
	}

	maxDelay, err := time.ParseDuration(f.Backend.RetryMaxDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry max delay: %w", err)
	}

	storageTTL, err := time.ParseDuration(f.Storage.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid storage TTL: %w", err)
	}

	clientTTL, err := time.ParseDuration(f.ClientSession.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid client session TTL: %w", err)
	}

	poll, err := time.ParseDuration(env("PROPMIZE_POLL_INTERVAL", f.Notifications.PollInterval))
	if err != nil {
		return nil, fmt.Errorf("invalid notification poll interval: %w", err)
	}

	cfg := &Config{
		Port:             env("PROPMIZE_PORT", strconv.Itoa(f.App.Port)),
		GinMode:          env("GIN_MODE", f.App.GinMode),
		LogLevel:         env("PROPMIZE_LOG_LEVEL", f.Log.Level),
		LogDevelopment:   envBool("PROPMIZE_LOG_DEVELOPMENT", f.Log.Development),
		BackendURL:       env("PROPMIZE_BACKEND_URL", f.Backend.BaseURL),
		BackendTimeout:   timeout,
		AdminPortal:      envBool("PROPMIZE_ADMIN_PORTAL", f.Backend.AdminPortal),
		QueryRetries:     f.Backend.QueryRetries,
		RetryBaseDelay:   baseDelay,
		RetryMaxDelay:    maxDelay,
		DSN:              env("PROPMIZE_DATABASE_DSN", f.Database.DSN),
		RedisAddr:        env("PROPMIZE_REDIS_ADDR", f.Redis.Addr),
		RedisPassword:    env("PROPMIZE_REDIS_PASSWORD", f.Redis.Password),
		RedisDB:          envInt("PROPMIZE_REDIS_DB", f.Redis.DB),
		StorageDriver:    env("PROPMIZE_STORAGE_DRIVER", f.Storage.Driver),
		AccessTokenKey:   f.Storage.AccessTokenKey,
		RefreshTokenKey:  f.Storage.RefreshTokenKey,
		StorageTTL:       storageTTL,
		ClientSecret:     env("PROPMIZE_CLIENT_SECRET", f.ClientSession.Secret),
		ClientIssuer:     f.ClientSession.Issuer,
		ClientSessionTTL: clientTTL,
		CookieName:       f.ClientSession.CookieName,
		CookieSecure:     f.ClientSession.Secure,
		MaxClients:       f.ClientSession.MaxClients,
		PollInterval:     poll,
		CasbinModelPath:  f.Casbin.ModelPath,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_session secret is required")
	}
	switch c.StorageDriver {
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis addr is required for the redis storage driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.AccessTokenKey == c.RefreshTokenKey {
		return fmt.Errorf("access and refresh token keys must differ")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("notification poll interval must be positive")
	}
	return nil
}

func applyDefaults(f *ConfigFile) {
	if f.App.Port == 0 {
		f.App.Port = 8080
	}
	if f.App.GinMode == "" {
		f.App.GinMode = "release"
	}
	if f.Log.Level == "" {
		f.Log.Level = "info"
	}
	if f.Backend.BaseURL == "" {
		f.Backend.BaseURL = "http://localhost:5001/api"
	}
	if f.Backend.Timeout == "" {
		f.Backend.Timeout = "30s"
	}
	if f.Backend.QueryRetries == 0 {
		f.Backend.QueryRetries = 1
	}
	if f.Backend.RetryBaseDelay == "" {
		f.Backend.RetryBaseDelay = "3s"
	}
	if f.Backend.RetryMaxDelay == "" {
		f.Backend.RetryMaxDelay = "30s"
	}
	if f.Database.DSN == "" {
		f.Database.DSN = "sqlite:propmize-admin.db"
	}
	if f.Storage.Driver == "" {
		f.Storage.Driver = "redis"
	}
	if f.Storage.AccessTokenKey == "" {
		if f.Backend.AdminPortal {
			f.Storage.AccessTokenKey = "adminAccessToken"
		} else {
			f.Storage.AccessTokenKey = "accessToken"
		}
	}
	if f.Storage.RefreshTokenKey == "" {
		f.Storage.RefreshTokenKey = "refreshToken"
	}
	if f.Storage.TTL == "" {
		f.Storage.TTL = "720h"
	}
	if f.ClientSession.Issuer == "" {
		f.ClientSession.Issuer = "propmize-admin"
	}
	if f.ClientSession.TTL == "" {
		f.ClientSession.TTL = "720h"
	}
	if f.ClientSession.CookieName == "" {
		f.ClientSession.CookieName = "propmize_client"
	}
	if f.ClientSession.MaxClients == 0 {
		f.ClientSession.MaxClients = 10000
	}
	if f.Notifications.PollInterval == "" {
		f.Notifications.PollInterval = "30s"
	}
	if f.Casbin.ModelPath == "" {
		f.Casbin.ModelPath = "config/rbac_model.conf"
	}
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml: %w", err)
	}

	return &config, nil
}
