package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-reception/backend/internal/config"
	"github.com/zhouzirui/z-reception/backend/internal/service/intake"
)

// Stored is a persisted record as read back from SQLite.
type Stored struct {
	ID        string
	Record    intake.Record
	Ward      string
	CreatedAt time.Time
}

// SQLite keeps records in a local database file.
type SQLite struct {
	db    *sql.DB
	table string
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(ctx context.Context, path, table string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if table == "" || strings.ContainsAny(table, "\"`;") {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db, table: `"` + table + `"`}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,%s,
	created_at INTEGER NOT NULL
)`, s.table, schemaColumns)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save inserts rec under a fresh uuid.
func (s *SQLite) Save(ctx context.Context, rec intake.Record) (string, error) {
	id := uuid.NewString()
	query := fmt.Sprintf(
		`INSERT INTO %s (id, patient_name, patient_age, patient_query, ward, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.table,
	)
	if _, err := s.db.ExecContext(ctx, query, id, rec.Name, rec.Age, rec.Reason, rec.Ward(), time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("insert row: %w", err)
	}
	return id, nil
}

// Recent returns up to limit records, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Stored, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(
		`SELECT id, patient_name, patient_age, patient_query, ward, created_at FROM %s ORDER BY created_at DESC LIMIT ?`,
		s.table,
	)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Stored
	for rows.Next() {
		var (
			item      Stored
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &item.Record.Name, &item.Record.Age, &item.Record.Reason, &item.Ward, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		item.CreatedAt = time.Unix(0, createdAt)
		item.Record.Category, _ = intent.ParseCategory(item.Ward)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLite) Kind() string { return config.SinkSQLite }

func (s *SQLite) Close() error {
	return s.db.Close()
}
