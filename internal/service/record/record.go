// Package record persists completed intakes to Supabase, Postgres or SQLite.
package record

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

// ErrNotConfigured is returned by Noop.
var ErrNotConfigured = intake.ErrNotConfigured

const schemaColumns = `
	patient_name TEXT NOT NULL,
	patient_age INTEGER NOT NULL,
	patient_query TEXT NOT NULL,
	ward TEXT NOT NULL`

// Sink is an intake.Sink that owns a connection.
type Sink interface {
	intake.Sink
	Kind() string
	Close() error
}

// Open builds the sink selected by cfg.
func Open(ctx context.Context, cfg config.SinkConfig, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kind := cfg.Resolve()
	var (
		sink Sink
		err  error
	)
	switch kind {
	case config.SinkSupabase:
		sink, err = NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Table, nil)
	case config.SinkPostgres:
		sink, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Table)
	case config.SinkSQLite:
		sink, err = NewSQLite(ctx, cfg.SQLitePath, cfg.Table)
	case config.SinkNone:
		sink = Noop{}
	default:
		return nil, fmt.Errorf("unknown sink kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s sink: %w", kind, err)
	}

	if kind == config.SinkNone {
		logger.Warn("no intake sink configured, completed intakes will not be persisted")
	} else {
		logger.Info("intake sink ready", zap.String("kind", kind), zap.String("table", cfg.Table))
	}
	return sink, nil
}

// Noop discards records.
type Noop struct{}

// Save always reports ErrNotConfigured.
func (Noop) Save(context.Context, intake.Record) (string, error) {
	return "", ErrNotConfigured
}

func (Noop) Kind() string { return config.SinkNone }

func (Noop) Close() error { return nil }
