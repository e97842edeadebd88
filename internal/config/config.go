package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig        `mapstructure:"server"`
	Database       DatabaseConfig      `mapstructure:"database"`
	Log            LogConfig           `mapstructure:"log"`
	Cache          CacheConfig         `mapstructure:"cache"`
	AI             AIConfig            `mapstructure:"ai"`
	Liveblocks     LiveblocksConfig    `mapstructure:"liveblocks"`
	Automation     AutomationConfig    `mapstructure:"automation"`
	SettingsAccess map[string][]string `mapstructure:"settings_access"`
	JWTSecret      string              `mapstructure:"jwt_secret"`
}

type ServerConfig struct {
	Port      int `mapstructure:"port"`
	BodyLimit int `mapstructure:"body_limit"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	PoolSize int    `mapstructure:"pool_size"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Debug bool   `mapstructure:"debug"`
	JSON  bool   `mapstructure:"json"`
}

type CacheConfig struct {
	Driver     string      `mapstructure:"driver"` // memory or redis
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type LiveblocksConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	SecretKey string `mapstructure:"secret_key"`
}

type AutomationConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// Dispatch outcomes are buffered and flushed to automation_runs.
	RunBufferSize        int `mapstructure:"run_buffer_size"`
	FlushIntervalSeconds int `mapstructure:"flush_interval_seconds"`
	RetentionDays        int `mapstructure:"retention_days"`
	CleanupIntervalHours int `mapstructure:"cleanup_interval_hours"`
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// setDefaults registers every key, even empty ones. AutomaticEnv only
// overlays keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 8*1024*1024)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "pricing_admin")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.debug", false)
	v.SetDefault("log.json", true)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("liveblocks.base_url", "https://api.liveblocks.io")
	v.SetDefault("liveblocks.secret_key", "")
	v.SetDefault("automation.timeout_seconds", 30)
	v.SetDefault("automation.run_buffer_size", 100)
	v.SetDefault("automation.flush_interval_seconds", 5)
	v.SetDefault("automation.retention_days", 30)
	v.SetDefault("automation.cleanup_interval_hours", 24)
	v.SetDefault("jwt_secret", "changeme-secret")
	v.SetDefault("settings_access", map[string][]string{
		"general":        {"org:admin", "org:member"},
		"themes":         {"org:admin", "org:member"},
		"programs":       {"org:admin", "org:member"},
		"members":        {"org:admin"},
		"domains":        {"org:admin"},
		"pricing-engine": {"org:admin"},
	})
}

// Load reads app.yaml from the working directory (or two levels up) and
// overlays environment variables, e.g. DATABASE_HOST for database.host.
// A missing file is fine; a malformed one is not.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../..")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("cache.driver must be memory or redis, got %q", c.Cache.Driver)
	}
	// Tickers need a positive interval.
	if c.Automation.FlushIntervalSeconds <= 0 {
		c.Automation.FlushIntervalSeconds = 5
	}
	if c.Automation.CleanupIntervalHours <= 0 {
		c.Automation.CleanupIntervalHours = 24
	}
	if c.Automation.RunBufferSize <= 0 {
		c.Automation.RunBufferSize = 100
	}
	return nil
}
