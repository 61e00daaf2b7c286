package db

import (
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// IgnoreErrNotFound drops ErrNotFound, so a missing row can be told apart from a failed query by a nil result.
func IgnoreErrNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// RequireAffected returns ErrNotFound when the statement did not touch any row.
func RequireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
