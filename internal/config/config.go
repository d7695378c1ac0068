package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName          string        `mapstructure:"app_name"`
	Env              string        `mapstructure:"app_env"`
	LogLevel         string        `mapstructure:"log_level"`
	APIBaseURL       string        `mapstructure:"api_base_url"`
	RequestTimeoutMS int64         `mapstructure:"request_timeout_ms"`
	RequestTimeout   time.Duration `mapstructure:"-"`
	RefreshPath      string        `mapstructure:"refresh_path"`
	RefreshCoalesce  bool          `mapstructure:"refresh_coalesce"`
	LoginRoute       string        `mapstructure:"login_route"`
	HomeRoute        string        `mapstructure:"home_route"`
	AdminRoutesRaw   string        `mapstructure:"admin_routes"`
	AdminRoutes      []string      `mapstructure:"-"`
	EndpointsFile    string        `mapstructure:"endpoints_file"`

	NotifyDisplayMS int64         `mapstructure:"notify_display_ms"`
	NotifyDisplay   time.Duration `mapstructure:"-"`

	NotifyWebhookURL       string        `mapstructure:"notify_webhook_url"`
	NotifyWebhookMethod    string        `mapstructure:"notify_webhook_method"`
	NotifyWebhookTimeoutMS int64         `mapstructure:"notify_webhook_timeout_ms"`
	NotifyWebhookTimeout   time.Duration `mapstructure:"-"`

	CredentialStore string `mapstructure:"credential_store"`
	BBoltPath       string `mapstructure:"bbolt_path"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	RedisKeyPrefix  string `mapstructure:"redis_key_prefix"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "library-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("request_timeout_ms", 10000)
	v.SetDefault("refresh_path", "/api/users/refresh-token")
	v.SetDefault("refresh_coalesce", true)
	v.SetDefault("login_route", "/login")
	v.SetDefault("home_route", "/books")
	v.SetDefault("admin_routes", "/users,/dashboard")
	v.SetDefault("endpoints_file", "")
	v.SetDefault("notify_display_ms", 3000)
	v.SetDefault("notify_webhook_url", "")
	v.SetDefault("notify_webhook_method", "POST")
	v.SetDefault("notify_webhook_timeout_ms", 5000)
	v.SetDefault("credential_store", "bbolt")
	v.SetDefault("bbolt_path", "./data/credentials.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "library:")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("api_base_url is required")
	}
	if cfg.RequestTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_ms (must be positive milliseconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond

	if cfg.NotifyDisplayMS <= 0 {
		return nil, fmt.Errorf("invalid notify_display_ms (must be positive milliseconds)")
	}
	cfg.NotifyDisplay = time.Duration(cfg.NotifyDisplayMS) * time.Millisecond

	if cfg.NotifyWebhookTimeoutMS <= 0 {
		return nil, fmt.Errorf("invalid notify_webhook_timeout_ms (must be positive milliseconds)")
	}
	cfg.NotifyWebhookTimeout = time.Duration(cfg.NotifyWebhookTimeoutMS) * time.Millisecond

	if strings.TrimSpace(cfg.RefreshPath) == "" {
		return nil, fmt.Errorf("refresh_path is required")
	}

	cfg.AdminRoutes = splitList(cfg.AdminRoutesRaw)

	cfg.CredentialStore = strings.ToLower(strings.TrimSpace(cfg.CredentialStore))
	switch cfg.CredentialStore {
	case "memory", "bbolt", "redis":
	default:
		return nil, fmt.Errorf("unsupported credential_store %q", cfg.CredentialStore)
	}

	return &cfg, nil
}

// splitList parses a comma separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
