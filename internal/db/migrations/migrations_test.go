package migrations

import (
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_users.sql",
		"00002_profile_records.sql",
		"00003_grant_applications.sql",
	}, names)

	for _, name := range names {
		data, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		sql := string(data)
		up := strings.Index(sql, "-- +goose Up")
		down := strings.Index(sql, "-- +goose Down")
		assert.Zero(t, up, "%s must start with a goose Up annotation", name)
		assert.Greater(t, down, up, "%s needs a Down section after Up", name)
	}
}

func TestSetup(t *testing.T) {
	require.NoError(t, setup(slog.Default()))
}
