package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mcoot/partygame/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("failed to load .env", slog.String("error", err.Error()))
	}
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var (
		databaseURL string
		source      string
		down        bool
	)

	cmd := &cobra.Command{
		Use:           "partygame-migrate",
		Short:         "Applies the postgres schema migrations",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv(config.EnvPrefix + "_DATABASE_URL")
			}
			if databaseURL == "" {
				return errors.New("--database-url or PARTYGAME_DATABASE_URL is required")
			}
			return run(source, databaseURL, down)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&databaseURL, "database-url", "", "postgres connection url (env: PARTYGAME_DATABASE_URL)")
	fs.StringVar(&source, "source", "file://db/migrations", "migration source url")
	fs.BoolVar(&down, "down", false, "roll back every migration instead of applying them")

	return cmd
}

func run(source, databaseURL string, down bool) error {
	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("migration setup failed: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("failed to close migrator", slog.Any("source_error", srcErr), slog.Any("database_error", dbErr))
		}
	}()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("database migration failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	slog.Info("database migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
