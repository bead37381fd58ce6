package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"direct-messenger-backend/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx. Repositories
// are built over it so the same code runs inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner is a DBTX that can open transactions
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, so a failed action never leaves a
// partial write behind.
func WithTx(ctx context.Context, db TxBeginner, fn func(tx DBTX) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return classify("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return classify("failed to commit transaction", err)
	}
	return nil
}

// Postgres SQLSTATE codes the repositories translate into domain errors
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeTooManyConnections  = "53300"
)

// classify wraps err with the sentinel matching its cause. Driver errors that
// have no domain meaning are wrapped with msg only.
func classify(msg string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, apperr.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%s: %w: %w", msg, apperr.ErrConflict, err)
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", msg, apperr.ErrNotFound, err)
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "57P0"),
			pgErr.Code == codeTooManyConnections:
			return fmt.Errorf("%s: %w: %w", msg, apperr.ErrUnavailable, err)
		}
		return fmt.Errorf("%s: %w", msg, err)
	}

	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", msg, apperr.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// constraintOf returns the name of the violated constraint, if any
func constraintOf(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsIDCollision reports whether err was caused by a generated primary key
// that already exists, as opposed to a natural-key conflict such as a phone
func IsIDCollision(err error) bool {
	switch constraintOf(err) {
	case "users_pkey", "chats_pkey", "messages_pkey":
		return true
	}
	return false
}

// NewToken returns an opaque identifier of n hex characters
func NewToken(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > 0 && n < len(id) {
		return id[:n]
	}
	return id
}
