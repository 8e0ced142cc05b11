package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"checkqueue"`
	Password string `env:"PASSWORD"                envDefault:"checkqueue"`
	Name     string `env:"NAME"                    envDefault:"checkqueue"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
	// MaxOpenConns bounds the pool; claims, waits and LISTEN all draw from it.
	MaxOpenConns int `env:"MAX_OPEN_CONNS" envDefault:"25"`
}

// DSN renders the connection string understood by pgx and golang-migrate.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	// Enabled turns Redis off entirely; the service then runs on Postgres alone.
	Enabled            bool     `env:"ENABLED"              envDefault:"true"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// HandledChannel is the pub/sub channel that carries recorded-verdict signals between processes.
	HandledChannel string `env:"HANDLED_CHANNEL" envDefault:"checkqueue:handled"`
}

// Configured reports whether Redis is enabled and has an address to connect to.
func (r RedisConfig) Configured() bool {
	if !r.Enabled {
		return false
	}
	switch {
	case r.UseCluster:
		return len(r.ClusterNodes) > 0 || strings.TrimSpace(r.URI) != ""
	case r.UseSentinel:
		return len(r.SentinelNodes) > 0
	default:
		return strings.TrimSpace(r.URI) != ""
	}
}

// TextCacheConfig controls the Redis read-through cache in front of stored texts.
type TextCacheConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	TTL     time.Duration `env:"TTL"     envDefault:"1h"`
}

// Sanitize applies guardrails to text cache configuration values.
func (c *TextCacheConfig) Sanitize() {
	if c.TTL <= 0 {
		c.Enabled = false
	}
}
