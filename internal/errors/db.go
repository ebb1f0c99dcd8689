package errors

import (
	"context"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the field name from a unique violation detail:
// "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances. It handles the
// patterns the profile store can hit:
//   - pgx.ErrNoRows → NotFound
//   - unique constraint violations → Conflict
//   - NOT NULL / check violations → Validation
//   - context timeouts/cancellations → Timeout/Canceled
//   - anything else from the driver → UpstreamUnavailable
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "profile store call timed out",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "profile store call was canceled",
			Cause:   err,
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "profile not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := pgErr.ColumnName
		if field == "" && pgErr.Detail != "" {
			if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
				field = m[1]
			}
		}
		msg := "row already exists"
		if field != "" {
			msg = "row already exists for " + field
		}
		return &AppError{
			Code:    ErrCodeConflict,
			Message: msg,
			Cause:   pgErr,
		}
	case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "profile row rejected by constraint " + pgErr.ConstraintName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeUpstreamUnavailable,
			Message: "profile store call failed",
			Cause:   pgErr,
		}
	}
}

// IsUniqueViolation reports whether err is a raw Postgres unique-constraint
// violation. The profile store uses this to treat a lost provisioning race as
// "already provisioned".
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
