package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation constraint. When a constraint name is provided, the helper also
// requires the constraint text in the error message.
func IsUniqueViolation(err error, constraintName ...string) bool {
	if err == nil {
		return false
	}

	unique := false
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		unique = pgErr.Code == "23505"
	} else {
		msg := err.Error()
		unique = strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "UNIQUE constraint failed")
	}
	if !unique {
		return false
	}

	if len(constraintName) > 0 && constraintName[0] != "" {
		return strings.Contains(err.Error(), constraintName[0])
	}
	return true
}
