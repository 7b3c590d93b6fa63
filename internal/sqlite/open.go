package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/newsdesk/internal/migrations"
)

// Open connects to the database file at path and brings its schema up to date.
func Open(path string) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("error opening db: %s", err)
	}
	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, err
	}

	return dbx, nil
}
