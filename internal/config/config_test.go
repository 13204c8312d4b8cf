package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) parse(args ...string) (*Config, error) {
	cfg := &Config{}
	cmd := &cobra.Command{Use: "test"}
	v := viper.New()
	cfg.BindFlags(cmd, v)
	s.Require().NoError(cmd.ParseFlags(args))
	return cfg, cfg.Resolve(cmd, v)
}

func (s *ConfigSuite) TestDefaultIsValid() {
	cfg := Default()
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestFlagsMatchDefaults() {
	cfg, err := s.parse()
	s.Require().NoError(err)
	s.Equal(Default(), *cfg)
}

func (s *ConfigSuite) TestFlagsOverrideDefaults() {
	cfg, err := s.parse("--port", "9000", "--storage", "redis", "--redis-url", "redis://cache:6379", "--party-ttl", "1h")
	s.Require().NoError(err)
	s.Equal(9000, cfg.Port)
	s.Equal(StorageRedis, cfg.Storage)
	s.Equal("redis://cache:6379", cfg.RedisURL)
	s.Equal(time.Hour, cfg.PartyTTL)
}

func (s *ConfigSuite) TestEnvironmentFillsUnsetFlags() {
	s.T().Setenv("PARTYGAME_PORT", "9090")
	s.T().Setenv("PARTYGAME_SESSION_DURATION", "2h")
	s.T().Setenv("PARTYGAME_PUBLIC_URL", "https://party.example.com")

	cfg, err := s.parse()
	s.Require().NoError(err)
	s.Equal(9090, cfg.Port)
	s.Equal(2*time.Hour, cfg.SessionDuration)
	s.Equal("https://party.example.com", cfg.PublicURL)
}

func (s *ConfigSuite) TestFlagBeatsEnvironment() {
	s.T().Setenv("PARTYGAME_PORT", "9090")

	cfg, err := s.parse("--port", "7000")
	s.Require().NoError(err)
	s.Equal(7000, cfg.Port)
}

func (s *ConfigSuite) TestInvalidEnvironmentValue() {
	s.T().Setenv("PARTYGAME_JANITOR_INTERVAL", "soon")

	_, err := s.parse()
	s.Error(err)
}

func (s *ConfigSuite) TestValidate() {
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"port too low", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"unknown storage", func(c *Config) { c.Storage = "mongo" }},
		{"redis without url", func(c *Config) { c.Storage = StorageRedis; c.RedisURL = "" }},
		{"postgres without url", func(c *Config) { c.Storage = StoragePostgres }},
		{"zero session", func(c *Config) { c.SessionDuration = 0 }},
		{"negative ttl", func(c *Config) { c.PartyTTL = -time.Second }},
		{"negative retention", func(c *Config) { c.FinishedRetention = -time.Second }},
		{"negative janitor", func(c *Config) { c.JanitorInterval = -time.Second }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			cfg := Default()
			tc.modify(&cfg)
			s.Error(cfg.Validate())
		})
	}
}

func (s *ConfigSuite) TestPostgresWithURL() {
	cfg := Default()
	cfg.Storage = StoragePostgres
	cfg.DatabaseURL = "postgres://localhost/partygame"
	s.NoError(cfg.Validate())
}

func (s *ConfigSuite) TestLevel() {
	cfg := Default()
	cfg.LogLevel = "debug"
	level, err := cfg.Level()
	s.Require().NoError(err)
	s.Equal(slog.LevelDebug, level)

	logger, err := cfg.NewLogger()
	s.Require().NoError(err)
	s.NotNil(logger)
}

func (s *ConfigSuite) TestLoadDotEnvMissingFile() {
	s.NoError(LoadDotEnv(filepath.Join(s.T().TempDir(), "missing.env")))
}

func (s *ConfigSuite) TestLoadDotEnvDoesNotOverride() {
	path := filepath.Join(s.T().TempDir(), ".env")
	s.Require().NoError(os.WriteFile(path, []byte("PARTYGAME_TEST_A=from-file\nPARTYGAME_TEST_B=from-file\n"), 0o600))
	s.T().Setenv("PARTYGAME_TEST_A", "from-env")
	// Setenv registers cleanup so the value loaded from the file is unset afterwards
	s.T().Setenv("PARTYGAME_TEST_B", "")
	s.Require().NoError(os.Unsetenv("PARTYGAME_TEST_B"))

	s.Require().NoError(LoadDotEnv(path))
	s.Equal("from-env", os.Getenv("PARTYGAME_TEST_A"))
	s.Equal("from-file", os.Getenv("PARTYGAME_TEST_B"))
}
