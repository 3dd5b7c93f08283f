package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgRepository implements Repository over a pool or a transaction
type PgRepository struct {
	db DBTX
}

// PgStore is the PostgreSQL Store
type PgStore struct {
	*PgRepository
	pool *pgxpool.Pool
}

// NewPgStore creates a store backed by the pool
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{PgRepository: &PgRepository{db: pool}, pool: pool}
}

// WithTx runs fn inside a transaction, committing when fn returns nil
func (s *PgStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperr.Internal(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &PgRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return translateError(err, "transaction")
	}
	return nil
}

// translateError maps driver faults to domain faults using a fixed
// code-to-meaning table. Anything unrecognized becomes Internal.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			field := constraintField(pgErr.ConstraintName)
			if field == "email" {
				return apperr.Conflict("Email already exists")
			}
			return apperr.Conflict("A record with this %s already exists", field)
		case pgForeignKeyViolation:
			return apperr.BadRequest("Invalid foreign key reference")
		}
	}

	return apperr.Internal(fmt.Errorf("%s: %w", entity, err), "Database operation failed")
}

// translateDeleteError is translateError for deletes, where a foreign key
// violation means other rows still reference the target
func translateDeleteError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return apperr.Conflict("%s is still referenced by complaints or their history", entity)
	}
	return translateError(err, entity)
}

// constraintField extracts the column from a "<table>_<column>_key" name
func constraintField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	for _, table := range []string{"users_", "complaints_", "assignments_", "agencies_", "categories_"} {
		if strings.HasPrefix(name, table) {
			return strings.TrimPrefix(name, table)
		}
	}
	if name == "" {
		return "value"
	}
	return name
}
