package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userdir/internal/infra/sqlite"
	"github.com/kislikjeka/userdir/internal/platform/user"
	"github.com/kislikjeka/userdir/testutil/usertest"
)

func openMemory(t *testing.T) *sqlite.UserRepository {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewUserRepository(db)
}

func TestUserRepository_Contract(t *testing.T) {
	usertest.RunRepositoryContract(t, func(t *testing.T) user.Repository {
		return openMemory(t)
	})
}

func TestUserRepository_FileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	age := 36
	require.NoError(t, sqlite.NewUserRepository(db).Create(ctx, &user.User{Username: "Ada", Age: &age}))
	require.NoError(t, db.Close())

	db, err = sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	got, err := sqlite.NewUserRepository(db).GetByUsername(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, 36, *got.Age)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestUserRepository_Ping(t *testing.T) {
	assert.NoError(t, openMemory(t).Ping(context.Background()))
}
