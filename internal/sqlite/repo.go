// Package sqlite is the sqlite backed implementation of newsdesk.Repository.
package sqlite

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// Ensure Repo implements the Repository interface
var _ newsdesk.Repository = (*Repo)(nil)

type Repo struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) Repo {
	return Repo{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Extended result codes for constraint violations.
const (
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

// isConflict reports a violated UNIQUE or PRIMARY KEY constraint.
func isConflict(err error) bool {
	sqliteErr := &sqlite.Error{}
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case codeConstraintUnique, codeConstraintPrimaryKey:
		return true
	}
	return false
}
