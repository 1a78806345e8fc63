package repository

import (
	"context"
	"database/sql"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

// execOne runs a single-row statement and reports ErrNotFound when nothing matched.
func execOne(ctx context.Context, db *sql.DB, query string, args []any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, d *DB, table, id string) (bool, error) {
	uid, ok := parseID(id)
	if !ok {
		return false, nil
	}
	query, args := d.builder().Delete(table).Where(entsql.EQ("id", uid.String())).Query()
	err := execOne(ctx, d.SQL, query, args)
	switch {
	case err == nil:
		return true, nil
	case err == common.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
