package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/2beens/fitlog/pkg"

	_ "modernc.org/sqlite"
)

// applied by the driver on every new connection of the pool
var connPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
}

type OpenSqliteParams struct {
	Path         string
	MaxOpenConns int
}

// OpenSqlite opens (creating if needed) the sqlite database file at params.Path.
// Writers are serialized by sqlite itself; busy_timeout makes concurrent
// writers wait for the lock instead of failing right away.
func OpenSqlite(ctx context.Context, params OpenSqliteParams) (*sql.DB, error) {
	if params.Path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}

	if params.Path != ":memory:" {
		if err := pkg.EnsureDir(filepath.Dir(params.Path)); err != nil {
			return nil, fmt.Errorf("open sqlite: create parent dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(params.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	maxOpen := params.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: ping: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	values := url.Values{}
	for _, p := range connPragmas {
		values.Add("_pragma", p)
	}
	return "file:" + path + "?" + values.Encode()
}
