package config

import "time"

// DBConfig contains PostgreSQL database configuration for the postgres job store.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"repeater"`
	Password string `env:"PASSWORD"                envDefault:"repeater"`
	Name     string `env:"NAME"                    envDefault:"repeater"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the catalog cache. URI is either host:port
// or a redis:// or rediss:// URL; a URL's credentials and database override Password and DB.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig controls the Redis-backed Tanium catalog cache.
type CacheConfig struct {
	Enabled bool `env:"CACHE_ENABLED" envDefault:"false"`
	// CatalogTTL is the TTL for cached report, view and saved question listings.
	CatalogTTL time.Duration `env:"CACHE_CATALOG_TTL" envDefault:"10m"`
	// KeyPrefix namespaces cache keys so several deployments can share a Redis.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"repeater:"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.CatalogTTL <= 0 {
		c.CatalogTTL = 10 * time.Minute
	}
}
