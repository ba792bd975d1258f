package config

import "time"

// CacheConfig contains session snapshot cache configuration (Redis-based).
// When Enabled is false the client keeps snapshots in process memory only.
type CacheConfig struct {
	Enabled       bool          `env:"CACHE_ENABLED"        envDefault:"false"`
	RedisAddr     string        `env:"CACHE_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"CACHE_REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"CACHE_REDIS_DB"       envDefault:"0"`
	SnapshotTTL   time.Duration `env:"CACHE_SNAPSHOT_TTL"   envDefault:"24h"`
}
