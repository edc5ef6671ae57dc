package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes for constraint violations.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Constraint returns the SQLSTATE code of a PostgreSQL error in err's chain,
// or "" when there is none.
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MapError translates sql.ErrNoRows to notFound and PostgreSQL errors whose
// SQLSTATE appears in byCode to the mapped domain error. The original error
// stays in the chain. Unmatched errors are returned unchanged.
func MapError(err, notFound error, byCode map[string]error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", notFound, err)
	}
	if mapped, ok := byCode[Constraint(err)]; ok {
		return fmt.Errorf("%w: %w", mapped, err)
	}
	return err
}
