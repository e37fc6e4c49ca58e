package store

import (
	"database/sql"
	"time"
)

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
