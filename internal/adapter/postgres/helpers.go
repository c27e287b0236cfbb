package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shogunhq/shogun/internal/domain"
)

// PostgreSQL error codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeDuplicateSchema     = "42P06"
	codeInvalidTextRep      = "22P02"
	codeUndefinedTable      = "42P01"
	codeInvalidSchemaName   = "3F000"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx so read helpers can run
// inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFoundWrap checks whether err is pgx.ErrNoRows (or a malformed ID that
// cannot match any row) and, if so, wraps domain.ErrNotFound with the given
// message. Otherwise it wraps the original error.
func notFoundWrap(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRep {
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// writeErr maps constraint violations on writes to domain errors: unique
// violations and duplicate schemas become domain.ErrConflict, dangling
// references become domain.ErrNotFound.
func writeErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch pgCode(err) {
	case codeUniqueViolation, codeDuplicateSchema:
		return fmt.Errorf("%s: %w", msg, domain.ErrConflict)
	case codeForeignKeyViolation, codeInvalidTextRep:
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// schemaErr maps a missing tenant schema or table to domain.ErrNotFound.
func schemaErr(err error, format string, args ...any) error {
	switch pgCode(err) {
	case codeUndefinedTable, codeInvalidSchemaName:
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrNotFound)
	}
	return notFoundWrap(err, format, args...)
}

// execExpectOne verifies that an Exec affected exactly one row. If not
// (and err is nil), it returns domain.ErrNotFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return writeErr(err, format, args...)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", domain.ErrNotFound)
	}
	return nil
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// qualify returns schema.table with both parts quoted.
func qualify(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
