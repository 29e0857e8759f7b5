package sqlstore

import (
	"database/sql"
	"time"
)

// Repo implements every repository port on one *sql.DB.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repo) DB() *sql.DB { return r.db }
