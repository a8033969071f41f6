package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

// Postgres writes records straight into a Postgres table.
type Postgres struct {
	pool   *pgxpool.Pool
	insert string
}

// NewPostgres connects to dsn and creates the table if it does not exist.
func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("database url is required")
	}
	if table == "" {
		return nil, errors.New("table is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	ident := pgx.Identifier{table}.Sanitize()
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,%s,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, ident, schemaColumns)
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Postgres{
		pool: pool,
		insert: fmt.Sprintf(
			`INSERT INTO %s (patient_name, patient_age, patient_query, ward) VALUES ($1, $2, $3, $4) RETURNING id::text`,
			ident,
		),
	}, nil
}

// Save inserts rec and returns the generated id.
func (p *Postgres) Save(ctx context.Context, rec intake.Record) (string, error) {
	var id string
	err := p.pool.QueryRow(ctx, p.insert, rec.Name, rec.Age, rec.Reason, rec.Ward()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert row: %w", err)
	}
	return id, nil
}

func (p *Postgres) Kind() string { return config.SinkPostgres }

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
