package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userdir/internal/infra/memory"
	"github.com/kislikjeka/userdir/internal/platform/user"
	"github.com/kislikjeka/userdir/testutil/usertest"
)

func TestUserRepository_Contract(t *testing.T) {
	usertest.RunRepositoryContract(t, func(t *testing.T) user.Repository {
		return memory.NewUserRepository()
	})
}

func TestUserRepository_UpdateKeepsPosition(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	for _, name := range []string{"Ada", "Grace", "Linus"} {
		require.NoError(t, repo.Create(ctx, &user.User{Username: name}))
	}
	require.NoError(t, repo.Update(ctx, &user.User{Username: "Ada"}))

	users, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "Ada", users[0].Username)
}


func TestUserRepository_ConcurrentPatches(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, repo.Patch(ctx, &user.Patch{Username: "Ada", Age: user.Set(i + 10)}))
				return
			}
			assert.NoError(t, repo.Patch(ctx, &user.Patch{Username: "Ada", Location: user.Set(fmt.Sprintf("city-%d", i))}))
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByUsername(ctx, "Ada")
	require.NoError(t, err)
	assert.NotNil(t, got.Age, "age patches must survive concurrent location patches")
	assert.NotNil(t, got.Location, "location patches must survive concurrent age patches")
}

func TestUserRepository_Ping(t *testing.T) {
	assert.NoError(t, memory.NewUserRepository().Ping(context.Background()))
}
