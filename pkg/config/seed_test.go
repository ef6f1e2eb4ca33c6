package config_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userdir/pkg/config"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeed(t, `
users:
  - username: Vishal
    age: 24
    location: Khargone
  - username: Mohit
  - username: Mayank
    age: 23
`)

	seed, err := config.LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Users, 3)

	assert.Equal(t, "Vishal", seed.Users[0].Username)
	require.NotNil(t, seed.Users[0].Age)
	assert.Equal(t, 24, *seed.Users[0].Age)
	assert.Equal(t, "Khargone", *seed.Users[0].Location)

	assert.Nil(t, seed.Users[1].Age)
	assert.Nil(t, seed.Users[1].Location)
}

func TestLoadSeedFile_ShippedFile(t *testing.T) {
	seed, err := config.LoadSeedFile(filepath.Join("..", "..", "config", "users.seed.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, seed.Users)
}

func TestLoadSeedFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "missing username", content: "users:\n  - age: 30\n", wantErr: "username is required"},
		{name: "duplicate username", content: "users:\n  - username: Ada\n  - username: Ada\n", wantErr: "duplicate"},
		{name: "malformed yaml", content: "users: [", wantErr: "parse"},
		{name: "age not a number", content: "users:\n  - username: Ada\n    age: old\n", wantErr: "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadSeedFile(writeSeed(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}
