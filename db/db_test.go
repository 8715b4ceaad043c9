package db

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// newTestDB opens a private in-memory sqlite database with the schema applied.
func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	gormDB, err := Open(sqlite.Open(dsn), false)
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(gormDB))

	g := &GormDB{DB: gormDB}
	t.Cleanup(func() { _ = g.Close() })
	return g
}
