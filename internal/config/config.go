// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Phases   PhasesConfig   `mapstructure:"phases"`
	Games    GamesConfig    `mapstructure:"games"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the optional event-publisher connection. An empty Addr
// disables publishing entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// AuthConfig holds token validation and operator configuration.
// Token issuance belongs to the external identity system; this service
// only validates.
type AuthConfig struct {
	JWTSecret string  `mapstructure:"jwt_secret"`
	AdminIDs  []int64 `mapstructure:"admin_ids"`
}

// PhasesConfig holds per-phase durations in milliseconds. Zero values keep
// the built-in defaults. show_result has no timer and cannot be configured.
type PhasesConfig struct {
	CountdownMs     int `mapstructure:"countdown_ms"`
	BettingClosedMs int `mapstructure:"betting_closed_ms"`
	WaitingResultMs int `mapstructure:"waiting_result_ms"`
	PayoutMs        int `mapstructure:"payout_ms"`
	InviteNextMs    int `mapstructure:"invite_next_ms"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Sicbo  SicboConfig  `mapstructure:"sicbo"`
	Xocdia XocdiaConfig `mapstructure:"xocdia"`
}

// SicboConfig holds three-dice game configuration.
type SicboConfig struct {
	Tables int `mapstructure:"tables"`
}

// XocdiaConfig holds disc-toss game configuration.
type XocdiaConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, AUTH_JWT_SECRET, REDIS_ADDR.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "quickbet")
	v.SetDefault("database.name", "quickbet")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.channel", "quickbet.events")

	v.SetDefault("phases.countdown_ms", 30000)
	v.SetDefault("phases.betting_closed_ms", 5000)
	v.SetDefault("phases.waiting_result_ms", 10000)
	v.SetDefault("phases.payout_ms", 8000)
	v.SetDefault("phases.invite_next_ms", 5000)

	v.SetDefault("games.sicbo.tables", 3)
	v.SetDefault("games.xocdia.enabled", true)
}

// IsAdmin checks if a user ID belongs to an operator.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Auth.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
