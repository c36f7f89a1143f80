package db

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/planhub-io/planhub/internal/config"
)

// New opens the Postgres connection pool described by cfg.Database.
func New(cfg *config.Config) (*gorm.DB, error) {
	g, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	}
	if cfg.Database.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return g, nil
}

// RegisterOpenTelemetryPlugin attaches span instrumentation to every query.
// Call only after the global tracer provider is installed.
func RegisterOpenTelemetryPlugin(g *gorm.DB) error {
	return g.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}
