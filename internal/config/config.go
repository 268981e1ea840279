package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Query    QueryConfig    `mapstructure:"query"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Events   EventsConfig   `mapstructure:"events"`
	Export   ExportConfig   `mapstructure:"export"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// DBConfig backs the operator audit trail. An empty DSN disables it.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type AuthConfig struct {
	Secret    string        `mapstructure:"secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	AdminRole string        `mapstructure:"admin_role"`
}

type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	MirrorTTL     time.Duration `mapstructure:"mirror_ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// QueryConfig drives the remote data cache. Each resource names an upstream
// collection with its own staleness window and proactive refresh interval.
type QueryConfig struct {
	RetryAttempts int              `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration    `mapstructure:"retry_delay"`
	Resources     []ResourceConfig `mapstructure:"resources"`
}

type ResourceConfig struct {
	Name            string        `mapstructure:"name"`
	Path            string        `mapstructure:"path"`
	Staleness       time.Duration `mapstructure:"staleness"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Enabled         bool          `mapstructure:"enabled"`
}

type SuggestConfig struct {
	Path     string        `mapstructure:"path"`
	Debounce time.Duration `mapstructure:"debounce"`
	MinChars int           `mapstructure:"min_chars"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LayoutConfig struct {
	MaxRows    int `mapstructure:"max_rows"`
	MaxColumns int `mapstructure:"max_columns"`
	CharBudget int `mapstructure:"char_budget"`
}

type EventsConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	URL        string        `mapstructure:"url"`
	BackoffMin time.Duration `mapstructure:"backoff_min"`
	BackoffMax time.Duration `mapstructure:"backoff_max"`
}

type ExportConfig struct {
	CSVWithBOM bool `mapstructure:"csv_with_bom"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("auth.admin_role", "admin")
	v.SetDefault("upstream.base_url", "http://localhost:9000")
	v.SetDefault("upstream.timeout", "15s")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.key_prefix", "finconsole:query:")
	v.SetDefault("cache.mirror_ttl", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("query.retry_attempts", 2)
	v.SetDefault("query.retry_delay", "1s")
	v.SetDefault("suggest.path", "/api/v1/suggestions")
	v.SetDefault("suggest.debounce", "300ms")
	v.SetDefault("suggest.min_chars", 2)
	v.SetDefault("suggest.timeout", "5s")
	v.SetDefault("layout.max_rows", 10)
	v.SetDefault("layout.max_columns", 5)
	v.SetDefault("layout.char_budget", 4000)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.backoff_min", "1s")
	v.SetDefault("events.backoff_max", "30s")
	v.SetDefault("export.csv_with_bom", true)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if len(cfg.Query.Resources) == 0 {
		cfg.Query.Resources = DefaultResources()
	}

	return cfg, nil
}

// DefaultResources mirrors the console pages and their observed refresh
// cadences: security events poll fastest, prompt catalogs slowest.
func DefaultResources() []ResourceConfig {
	return []ResourceConfig{
		{Name: "audit_logs", Path: "/api/v1/audit-logs", Staleness: 15 * time.Second, RefreshInterval: 15 * time.Second, Enabled: true},
		{Name: "security_events", Path: "/api/v1/security-events", Staleness: 5 * time.Second, RefreshInterval: 5 * time.Second, Enabled: true},
		{Name: "access_logs", Path: "/api/v1/access-logs", Staleness: 10 * time.Second, RefreshInterval: 10 * time.Second, Enabled: true},
		{Name: "holdings", Path: "/api/v1/portfolio/holdings", Staleness: 30 * time.Second, RefreshInterval: 30 * time.Second, Enabled: true},
		{Name: "prompts", Path: "/api/v1/prompts", Staleness: 60 * time.Second, RefreshInterval: 60 * time.Second, Enabled: true},
	}
}
