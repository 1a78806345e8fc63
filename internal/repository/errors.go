package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// dbErr maps driver errors: no rows is "not found", anything else is a database error.
func dbErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrDatabase) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrDatabase, err)
}

// parseID never errors on malformed input; a bad id simply cannot exist.
func parseID(id string) (uuid.UUID, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

type scanner interface {
	Scan(dest ...any) error
}
