// Package postgres provides a Postgres-backed product store.
package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for product rows.
type Config struct {
	DSN      string
	Table    string
	MaxConns int32
}

type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Store writes product rows into Postgres. SaveAll has full-replace
// semantics: the table is truncated and rewritten in one transaction.
//
// It assumes a table schema like:
//
//	CREATE TABLE products (
//	    id BIGSERIAL PRIMARY KEY,
//	    title TEXT NOT NULL,
//	    price DOUBLE PRECISION NOT NULL,
//	    image_path TEXT NOT NULL
//	);
type Store struct {
	pool   pgxPool
	table  string
	logger *zap.Logger
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return NewWithPool(pool, cfg.Table, logger)
}

// NewWithPool builds a Store over an existing pool (used in tests).
func NewWithPool(pool pgxPool, table string, logger *zap.Logger) (*Store, error) {
	if table == "" {
		table = "products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table, logger: logger}, nil
}

// SaveAll replaces the table contents with the given record set.
func (s *Store) SaveAll(ctx context.Context, records []catalog.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			s.logger.Warn("rollback failed", zap.Error(rbErr))
		}
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", s.table)); err != nil {
		return fmt.Errorf("truncate %s: %w", s.table, err)
	}

	insert := fmt.Sprintf("INSERT INTO %s (title, price, image_path) VALUES ($1, $2, $3)", s.table)
	for _, r := range records {
		if _, err := tx.Exec(ctx, insert, r.Title, r.Price, r.ImagePath); err != nil {
			return fmt.Errorf("insert record %q: %w", r.Title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadAll returns all stored records in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]catalog.Record, error) {
	query := fmt.Sprintf("SELECT title, price, image_path FROM %s ORDER BY id", s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		var r catalog.Record
		if err := rows.Scan(&r.Title, &r.Price, &r.ImagePath); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return records, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
