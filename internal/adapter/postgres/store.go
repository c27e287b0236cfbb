package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shogunhq/shogun/internal/port/database"
)

var (
	_ database.Store = (*Store)(nil)
	_ database.Tx    = (*pgTx)(nil)
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks connectivity to the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx runs fn in a READ COMMITTED transaction. Schema DDL issued through
// the Tx is transactional in PostgreSQL, so a rollback also removes any
// tenant schema created by fn.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return writeErr(err, "commit tx")
	}
	return nil
}

// pgTx implements database.Tx on a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}
