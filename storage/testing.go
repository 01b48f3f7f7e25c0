package storage

import (
	"database/sql"
	"fmt"

	"github.com/cardify/storefront/storage/db"
	_ "github.com/mattn/go-sqlite3"
)

// NewTestDB creates an in-memory SQLite database for testing
func NewTestDB() (*Storage, func(), error) {
	// A single connection keeps every query on the same in-memory database.
	database, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open test database: %w", err)
	}
	database.SetMaxOpenConns(1)

	if err := migrate(database, embedMigrations); err != nil {
		database.Close()
		return nil, nil, err
	}

	store := &Storage{
		db:      database,
		Queries: db.New(database),
	}

	cleanup := func() {
		database.Close()
	}

	return store, cleanup, nil
}
