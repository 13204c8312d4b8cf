package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// PartyTTL expires parties (and their code claims) that stop being
	// updated. Zero keeps parties forever.
	PartyTTL time.Duration

	// MaxTxRetries bounds optimistic transaction retries in UpdateParty
	MaxTxRetries int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		PartyTTL:     24 * time.Hour,
		MaxTxRetries: 32,
	}
}
