package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userdir/internal/infra/memory"
	"github.com/kislikjeka/userdir/internal/platform/user"
	"github.com/kislikjeka/userdir/pkg/logger"
)

func TestSeedUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file is skipped", func(t *testing.T) {
		svc := user.NewService(memory.NewUserRepository(), logger.NewNop())

		err := seedUsers(ctx, svc, filepath.Join(t.TempDir(), "absent.yaml"), logger.NewNop())
		require.NoError(t, err)

		users, err := svc.List(ctx, user.DefaultListLimit)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("default seed file", func(t *testing.T) {
		svc := user.NewService(memory.NewUserRepository(), logger.NewNop())

		require.NoError(t, seedUsers(ctx, svc, filepath.Join("..", "..", "config", "users.seed.yaml"), logger.NewNop()))

		users, err := svc.List(ctx, user.DefaultListLimit)
		require.NoError(t, err)
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		assert.Equal(t, []string{"Vishal", "Mohit", "Mayank"}, names)
	})

	t.Run("malformed file fails startup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "users.seed.yaml")
		require.NoError(t, os.WriteFile(path, []byte("users: [\n"), 0o600))

		svc := user.NewService(memory.NewUserRepository(), logger.NewNop())
		assert.Error(t, seedUsers(ctx, svc, path, logger.NewNop()))
	})
}
