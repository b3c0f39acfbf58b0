package repomanager

import (
	"database/sql"
	"fmt"
	"strings"
)

// sqliteDSN appends the driver options every connection needs: time.Time
// round-tripping for DATETIME columns, foreign key enforcement and a busy
// timeout so concurrent writers back off instead of failing immediately.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewFromDSN opens a database connection for the given DSN and returns it
// together with a matching RepositoryManager. Supported schemes are
// postgres:// (pgx) and sqlite:// (the rest of the DSN is the file path).
func NewFromDSN(dsn string) (RepositoryManager, *sql.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		return &PostgresRepositoryManager{}, db, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err := sql.Open("sqlite", sqliteDSN(strings.TrimPrefix(dsn, "sqlite://")))
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		return &SQLiteRepositoryManager{}, db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database dsn: %s", dsn)
	}
}
