package db

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mediabridge/mediabridge/internal/config"
)

// MigrateCommands lists the verbs accepted by RunMigrate.
var MigrateCommands = []string{"up", "down", "version", "force"}

// RunMigrate applies or rolls back the schema. migrationsFS must hold the .sql
// files at its root. "up" and "down" take an optional step count; "force"
// requires a version.
func RunMigrate(logger *slog.Logger, cfg config.PostgresConfig, migrationsFS fs.FS, command string, args []string) error {
	steps, err := parseMigrateArgs(command, args)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}

	sourceDriver, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, DSN(cfg))
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	m.Log = &migrateLogger{logger: logger}

	switch command {
	case "up", "down":
		if steps == 0 {
			if command == "up" {
				err = m.Up()
			} else {
				err = m.Down()
			}
		} else {
			if command == "down" {
				steps = -steps
			}
			err = m.Steps(steps)
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate %s: %w", command, err)
		}
		ver, dirty, _ := m.Version()
		logger.Info("migration complete", slog.String("direction", command), slog.Uint64("version", uint64(ver)), slog.Bool("dirty", dirty))

	case "version":
		ver, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		logger.Info("current version", slog.Uint64("version", uint64(ver)), slog.Bool("dirty", dirty))

	case "force":
		if err := m.Force(steps); err != nil {
			return fmt.Errorf("migrate force: %w", err)
		}
		logger.Info("forced version", slog.Int("version", steps))
	}
	return nil
}

// parseMigrateArgs validates command and returns its numeric argument (step
// count or forced version), zero when absent.
func parseMigrateArgs(command string, args []string) (int, error) {
	switch command {
	case "up", "down", "version", "force":
	default:
		return 0, fmt.Errorf("unknown migrate command: %s (use: up, down, version, force)", command)
	}
	if command == "force" && len(args) == 0 {
		return 0, errors.New("force requires a version number argument")
	}
	if len(args) == 0 || command == "version" {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	if command != "force" && n < 0 {
		return 0, fmt.Errorf("step count must be positive, got %d", n)
	}
	return n, nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
