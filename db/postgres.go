package db

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Connect opens a Postgres pool sized for the viewer's read-heavy workload
// and verifies the connection before returning it.
func Connect(databaseURL string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	return pool, pool.Ping()
}
