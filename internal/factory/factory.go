package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/partygame/internal/dependencies/clock"
	"github.com/mcoot/partygame/internal/dependencies/random"
	"github.com/mcoot/partygame/internal/services/auth"
	"github.com/mcoot/partygame/internal/services/codegen"
	"github.com/mcoot/partygame/internal/services/history"
	"github.com/mcoot/partygame/internal/services/party"
	"github.com/mcoot/partygame/internal/storage"
	"github.com/mcoot/partygame/internal/storage/memory"
	redisstorage "github.com/mcoot/partygame/internal/storage/redis"
	"github.com/mcoot/partygame/internal/storage/sqlstore"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Codes          *codegen.Generator
	PartyRegistry  *party.Registry
	HistoryService *history.Service
	AuthService    *auth.Service

	closer io.Closer
}

// Close releases the storage backend's connections, if it holds any
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the postgres DSN (required if StorageType is "postgres")
	DatabaseURL string
	// SQLConfig tunes the postgres connection pool (optional)
	SQLConfig *sqlstore.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	app := newWithDependencies(store, clock.New(), random.New(), authCfg, logger)
	app.closer = closer
	return app, nil
}

func openStorage(cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis storage: %w", err)
		}
		return store, store, nil
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		sqlCfg := sqlstore.DefaultConfig()
		if cfg.SQLConfig != nil {
			sqlCfg = *cfg.SQLConfig
		}
		store, err := sqlstore.OpenPostgres(cfg.DatabaseURL, sqlCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) *App {
	codes := codegen.New(rnd)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Codes:          codes,
		PartyRegistry:  party.NewRegistry(store, codes, clk, rnd, logger),
		HistoryService: history.New(store, clk, rnd, logger),
		AuthService:    auth.New(store, clk, authCfg, logger),
	}
}
