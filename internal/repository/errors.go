package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

func translateWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

// roleLinkErr drops the error chain: a missing role row is a schema fault, and
// pgx.ErrNoRows must not surface as a not-found to the registering client.
func roleLinkErr(role string, err error) error {
	return fmt.Errorf("assign role %s: %v", role, err)
}
