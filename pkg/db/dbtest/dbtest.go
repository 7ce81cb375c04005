// Package dbtest opens throwaway in-memory databases for store and endpoint
// tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/db"
)

var counter atomic.Int64

// New returns a migrated in-memory SQLite database that is closed when the
// test ends. Each call gets its own database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("sqlite://file:dbtest%d?mode=memory&cache=shared", counter.Add(1))
	database, err := db.Connect(db.Config{URL: name})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database))

	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}
