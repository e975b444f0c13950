package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lalith-99/notevault/internal/repository"
)

// DBTX is the subset of *pgxpool.Pool the stores use.
//
// Why an interface instead of *pgxpool.Pool directly?
//   - Stores can be unit-tested against pgxmock, which implements the
//     same three methods without a running Postgres.
//   - A pgx.Tx also satisfies it, so a store can run inside a transaction
//     if a caller ever needs one.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the SQLSTATE Postgres returns when a UNIQUE
// constraint rejects a row.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var (
	_ repository.TenantRepository = (*TenantStore)(nil)
	_ repository.UserRepository   = (*UserStore)(nil)
	_ repository.NoteRepository   = (*NoteStore)(nil)
)
