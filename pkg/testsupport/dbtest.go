package testsupport

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

var dbCounter atomic.Int64

// NewSQLiteMemoryDB opens a fresh in-memory sqlite database for storage
// integration tests. Each call gets its own database so tests stay isolated.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
