// Package postgres provides a Postgres-backed listing store.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/store"
)

const (
	backendName = "postgres"
	// DefaultTable is used when Config.Table is empty.
	DefaultTable = "listings"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for the listing table.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// ListingStore keeps one row per listing with the full record in a jsonb
// payload. Save replaces the table content in a single transaction.
type ListingStore struct {
	pool   pool
	table  string
	logger *zap.Logger
}

var _ store.Store = (*ListingStore)(nil)

// New connects to Postgres using cfg.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*ListingStore, error) {
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
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s, err := NewWithPool(p, cfg.Table, logger)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string, logger *zap.Logger) (*ListingStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingStore{pool: p, table: table, logger: logger}, nil
}

// Close releases the underlying pool resources.
func (s *ListingStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the listing table when it does not exist.
func (s *ListingStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id             text PRIMARY KEY,
	published_date date NOT NULL,
	payload        jsonb NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Load returns every valid listing row.
func (s *ListingStore) Load(ctx context.Context) ([]listing.JobListing, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s ORDER BY published_date DESC, id ASC`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, &store.ReadError{Backend: backendName, Err: fmt.Errorf("query listings: %w", err)}
	}
	defer rows.Close()

	var (
		out     []listing.JobListing
		skipped int
	)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, &store.ReadError{Backend: backendName, Err: fmt.Errorf("scan listing: %w", err)}
		}
		var l listing.JobListing
		if err := json.Unmarshal(payload, &l); err != nil || l.Validate() != nil {
			skipped++
			continue
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &store.ReadError{Backend: backendName, Err: fmt.Errorf("iterate listings: %w", err)}
	}
	if skipped > 0 {
		s.logger.Warn("skipped invalid stored listings", zap.String("table", s.table), zap.Int("count", skipped))
	}
	return out, nil
}

// Save replaces the table content with listings.
func (s *ListingStore) Save(ctx context.Context, listings []listing.JobListing) error {
	rows := make([][]any, 0, len(listings))
	for _, l := range listings {
		payload, err := json.Marshal(l)
		if err != nil {
			return &store.WriteError{Backend: backendName, Err: fmt.Errorf("marshal listing %s: %w", l.ID, err)}
		}
		rows = append(rows, []any{l.ID, l.Published(), payload})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &store.WriteError{Backend: backendName, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return s.rollback(ctx, tx, fmt.Errorf("clear listings: %w", err))
	}
	if len(rows) > 0 {
		copied, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, []string{"id", "published_date", "payload"}, pgx.CopyFromRows(rows))
		if err != nil {
			return s.rollback(ctx, tx, fmt.Errorf("copy listings: %w", err))
		}
		if int(copied) != len(rows) {
			return s.rollback(ctx, tx, fmt.Errorf("copy listings: wrote %d of %d rows", copied, len(rows)))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &store.WriteError{Backend: backendName, Err: fmt.Errorf("commit listings: %w", err)}
	}
	s.logger.Debug("store saved", zap.String("table", s.table), zap.Int("count", len(listings)))
	return nil
}

func (s *ListingStore) rollback(ctx context.Context, tx pgx.Tx, cause error) error {
	if err := tx.Rollback(ctx); err != nil {
		s.logger.Warn("rollback failed", zap.String("table", s.table), zap.Error(err))
	}
	return &store.WriteError{Backend: backendName, Err: cause}
}
