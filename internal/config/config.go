// Package config holds the party server configuration. Values come from
// command-line flags, PARTYGAME_* environment variables and an optional
// .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the server reads
const EnvPrefix = "PARTYGAME"

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config is the server configuration
type Config struct {
	Bind string
	Port int

	Storage     string
	RedisURL    string
	DatabaseURL string
	PartyTTL    time.Duration

	SessionDuration time.Duration
	SessionKey      string
	SecureCookies   bool
	SignInSecret    string
	PublicURL       string

	FinishedRetention time.Duration
	JanitorInterval   time.Duration

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Bind:              "0.0.0.0",
		Port:              8080,
		Storage:           StorageMemory,
		RedisURL:          "redis://localhost:6379",
		PartyTTL:          24 * time.Hour,
		SessionDuration:   24 * time.Hour,
		FinishedRetention: 24 * time.Hour,
		JanitorInterval:   10 * time.Minute,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --storage=redis")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("--database-url is required when --storage=postgres")
		}
	default:
		return fmt.Errorf("invalid storage %q (must be memory, redis or postgres)", c.Storage)
	}
	if c.SessionDuration <= 0 {
		return fmt.Errorf("invalid session duration: %s", c.SessionDuration)
	}
	if c.PartyTTL < 0 {
		return fmt.Errorf("invalid party ttl: %s", c.PartyTTL)
	}
	if c.FinishedRetention < 0 {
		return fmt.Errorf("invalid finished retention: %s", c.FinishedRetention)
	}
	if c.JanitorInterval < 0 {
		return fmt.Errorf("invalid janitor interval: %s", c.JanitorInterval)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format %q (must be json or text)", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// NewLogger builds the process logger from LogLevel and LogFormat
func (c *Config) NewLogger() (*slog.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
}

// BindFlags registers the server flags on cmd and backs each of them with
// viper so that PARTYGAME_<FLAG> environment variables apply when the flag
// was not given. Call Resolve from the command's PreRunE.
func (c *Config) BindFlags(cmd *cobra.Command, v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", d.Bind, "address to bind to (env: PARTYGAME_BIND)")
	fs.IntVarP(&c.Port, "port", "p", d.Port, "port to listen on (env: PARTYGAME_PORT)")
	fs.StringVar(&c.Storage, "storage", d.Storage, "storage backend: memory, redis or postgres (env: PARTYGAME_STORAGE)")
	fs.StringVar(&c.RedisURL, "redis-url", d.RedisURL, "redis connection url (env: PARTYGAME_REDIS_URL)")
	fs.StringVar(&c.DatabaseURL, "database-url", d.DatabaseURL, "postgres connection url (env: PARTYGAME_DATABASE_URL)")
	fs.DurationVar(&c.PartyTTL, "party-ttl", d.PartyTTL, "expiry for parties in redis, 0 disables (env: PARTYGAME_PARTY_TTL)")
	fs.DurationVar(&c.SessionDuration, "session-duration", d.SessionDuration, "lifetime of a sign-in session (env: PARTYGAME_SESSION_DURATION)")
	fs.StringVar(&c.SessionKey, "session-key", d.SessionKey, "cookie signing key, random when empty (env: PARTYGAME_SESSION_KEY)")
	fs.BoolVar(&c.SecureCookies, "secure-cookies", d.SecureCookies, "mark session cookies Secure (env: PARTYGAME_SECURE_COOKIES)")
	fs.StringVar(&c.SignInSecret, "signin-secret", d.SignInSecret, "shared secret required from the sign-in proxy (env: PARTYGAME_SIGNIN_SECRET)")
	fs.StringVar(&c.PublicURL, "public-url", d.PublicURL, "externally visible base url used in join links (env: PARTYGAME_PUBLIC_URL)")
	fs.DurationVar(&c.FinishedRetention, "finished-retention", d.FinishedRetention, "how long finished parties are kept (env: PARTYGAME_FINISHED_RETENTION)")
	fs.DurationVar(&c.JanitorInterval, "janitor-interval", d.JanitorInterval, "how often expired data is purged, 0 disables (env: PARTYGAME_JANITOR_INTERVAL)")
	fs.StringVar(&c.LogLevel, "log-level", d.LogLevel, "debug, info, warn or error (env: PARTYGAME_LOG_LEVEL)")
	fs.StringVar(&c.LogFormat, "log-format", d.LogFormat, "json or text (env: PARTYGAME_LOG_FORMAT)")

	for _, name := range []string{"bind", "port", "storage", "redis-url", "database-url", "party-ttl",
		"session-duration", "session-key", "secure-cookies", "signin-secret", "public-url",
		"finished-retention", "janitor-interval", "log-level", "log-format"} {
		_ = v.BindPFlag(name, fs.Lookup(name))
		_ = v.BindEnv(name)
	}
}

// Resolve copies environment overrides into any flag that was not set
// explicitly, then validates the result.
func (c *Config) Resolve(cmd *cobra.Command, v *viper.Viper) error {
	fs := cmd.Flags()
	var setErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil && setErr == nil {
			setErr = fmt.Errorf("invalid value for %s: %w", f.Name, err)
		}
	})
	if setErr != nil {
		return setErr
	}
	return c.Validate()
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}
