package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// SQLSTATE codes for conditions a caller may retry after.
var retryableStates = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
	"57014": {}, // query_canceled (statement_timeout)
	"53300": {}, // too_many_connections
}

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// StorageError converts a driver error into an apperrors storage error.
// Lock, deadlock and serialization failures are marked retryable, as are
// connection-level failures.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	retryable := isConnectionError(err)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, retryable = retryableStates[pgErr.Code]
	}
	return apperrors.Storage(op, err, retryable)
}
