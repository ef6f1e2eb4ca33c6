// Package usertest holds the behavioural suite every user.Repository
// implementation must pass.
package usertest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userdir/internal/platform/user"
)

// Factory returns an empty repository for one subtest
type Factory func(t *testing.T) user.Repository

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// RunRepositoryContract exercises repository semantics shared by all backends
func RunRepositoryContract(t *testing.T, newRepo Factory) {
	t.Run("create and get", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada", Age: intPtr(36), Location: strPtr("London")}))

		got, err := repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Username)
		require.NotNil(t, got.Age)
		assert.Equal(t, 36, *got.Age)
		require.NotNil(t, got.Location)
		assert.Equal(t, "London", *got.Location)
	})

	t.Run("optional fields stay null", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Grace"}))

		got, err := repo.GetByUsername(ctx, "Grace")
		require.NoError(t, err)
		assert.Nil(t, got.Age)
		assert.Nil(t, got.Location)
	})

	t.Run("duplicate create", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada", Age: intPtr(36)}))
		err := repo.Create(ctx, &user.User{Username: "Ada", Age: intPtr(50)})
		assert.ErrorIs(t, err, user.ErrUserAlreadyExists)

		got, err := repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, 36, *got.Age)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada"}))
		require.NoError(t, repo.Create(ctx, &user.User{Username: "ada"}))

		_, err := repo.GetByUsername(ctx, "ADA")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newRepo(t).GetByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("list respects limit", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		for i := 0; i < 5; i++ {
			require.NoError(t, repo.Create(ctx, &user.User{Username: fmt.Sprintf("user%d", i)}))
		}

		users, err := repo.List(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, users, 3)

		users, err = repo.List(ctx, 50)
		require.NoError(t, err)
		assert.Len(t, users, 5)

		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		assert.Equal(t, []string{"user0", "user1", "user2", "user3", "user4"}, names)
	})

	t.Run("list non-positive limit", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada"}))

		for _, limit := range []int{0, -1} {
			users, err := repo.List(ctx, limit)
			require.NoError(t, err)
			assert.Empty(t, users, "limit %d", limit)
		}
	})

	t.Run("list empty store", func(t *testing.T) {
		users, err := newRepo(t).List(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("update replaces every field", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada", Age: intPtr(36), Location: strPtr("London")}))
		require.NoError(t, repo.Update(ctx, &user.User{Username: "Ada", Age: intPtr(37)}))

		got, err := repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, 37, *got.Age)
		assert.Nil(t, got.Location)
	})

	t.Run("update missing", func(t *testing.T) {
		err := newRepo(t).Update(context.Background(), &user.User{Username: "ghost"})
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("patch changes only present fields", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada", Age: intPtr(36), Location: strPtr("London")}))

		require.NoError(t, repo.Patch(ctx, &user.Patch{Username: "Ada", Location: user.Set("Paris")}))
		got, err := repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, 36, *got.Age)
		assert.Equal(t, "Paris", *got.Location)

		require.NoError(t, repo.Patch(ctx, &user.Patch{Username: "Ada", Age: user.Set(150), Location: user.Null[string]()}))
		got, err = repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, 150, *got.Age)
		assert.Nil(t, got.Location)

		require.NoError(t, repo.Patch(ctx, &user.Patch{Username: "Ada"}))
		got, err = repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, 150, *got.Age)
	})

	t.Run("patch missing", func(t *testing.T) {
		err := newRepo(t).Patch(context.Background(), &user.Patch{Username: "ghost", Age: user.Set(30)})
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada"}))
		require.NoError(t, repo.Create(ctx, &user.User{Username: "Grace"}))
		require.NoError(t, repo.Delete(ctx, "Ada"))

		_, err := repo.GetByUsername(ctx, "Ada")
		assert.ErrorIs(t, err, user.ErrUserNotFound)

		users, err := repo.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Grace", users[0].Username)

		assert.ErrorIs(t, repo.Delete(ctx, "Ada"), user.ErrUserNotFound)
		require.NoError(t, repo.Create(ctx, &user.User{Username: "Ada"}))
	})

	t.Run("returned records are copies", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		in := &user.User{Username: "Ada", Age: intPtr(36)}
		require.NoError(t, repo.Create(ctx, in))
		*in.Age = 99

		got, err := repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		*got.Age = 77

		again, err := repo.GetByUsername(ctx, "Ada")
		require.NoError(t, err)
		assert.Equal(t, 36, *again.Age)
	})

	t.Run("concurrent creates admit one winner", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		const workers = 8
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			conflicts atomic.Int32
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(age int) {
				defer wg.Done()
				err := repo.Create(ctx, &user.User{Username: "Ada", Age: intPtr(age)})
				switch {
				case err == nil:
					succeeded.Add(1)
				case assert.ErrorIs(t, err, user.ErrUserAlreadyExists):
					conflicts.Add(1)
				}
			}(20 + i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(workers-1), conflicts.Load())
	})
}
