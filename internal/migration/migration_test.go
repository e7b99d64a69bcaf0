package migration

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/vendo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunCreatesSchemaWithoutPostgres(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Run(conn, config.Config{DBType: "sqlite"}))
	assert.True(t, conn.Migrator().HasTable("purchases"))

	// second run is a no-op, not an error
	require.NoError(t, Run(conn, config.Config{DBType: "sqlite"}))
}
