package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	up, err := fs.ReadFile(Migrations(), "001_init.up.sql")
	require.NoError(t, err)

	for _, table := range []string{"users", "products", "reviews", "moderation_actions"} {
		assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, string(up), "ON DELETE CASCADE")

	_, err = fs.Stat(Migrations(), "001_init.down.sql")
	assert.NoError(t, err)
}
