package repository

import (
	"database/sql"
	"time"
)

// now returns the current time in UTC so stored timestamps compare consistently
// across SQLite (text) and PostgreSQL.
func now() time.Time {
	return time.Now().UTC()
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
