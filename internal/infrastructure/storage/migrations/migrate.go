// Package migrations applies the embedded schema with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var files embed.FS

// Logger adapts zap to migrate.Logger.
type Logger struct {
	logger  *zap.Logger
	verbose bool
}

// NewLogger creates a migrate logger.
func NewLogger(logger *zap.Logger, verbose bool) *Logger {
	return &Logger{logger: logger, verbose: verbose}
}

// Printf implements migrate.Logger.
func (l *Logger) Printf(format string, v ...any) {
	l.logger.Sugar().Infof("migration: "+format, v...)
}

// Verbose implements migrate.Logger.
func (l *Logger) Verbose() bool {
	return l.verbose
}

func newMigrate(dbURL string, log *zap.Logger, verbose bool) (*migrate.Migrate, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = NewLogger(log, verbose)
	return m, nil
}

// Up applies every pending migration. No pending migrations is not an error.
func Up(dbURL string, log *zap.Logger, verbose bool) error {
	log.Info("running database migrations")

	m, err := newMigrate(dbURL, log, verbose)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("database migrations: no change needed")
			return nil
		}
		log.Error("database migrations failed", zap.Error(err))
		return err
	}

	version, dirty, _ := m.Version()
	log.Info("database migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down rolls back steps migrations.
func Down(dbURL string, log *zap.Logger, steps int) error {
	m, err := newMigrate(dbURL, log, true)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back %d migrations: %w", steps, err)
	}
	return nil
}
