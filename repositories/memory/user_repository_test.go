package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/appshivam/restauth/models"
	"github.com/appshivam/restauth/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded users are found case-insensitively", func(t *testing.T) {
		u := models.NewUser("a@x.com", "hash", []string{"USER"})
		repo := NewUserRepository(u)

		got, err := repo.FindByIdentifier(ctx, " A@X.COM ")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		repo := NewUserRepository()

		_, err := repo.FindByIdentifier(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := NewUserRepository(models.NewUser("a@x.com", "h1", nil))

		err := repo.Create(ctx, models.NewUser("A@x.com", "h2", nil))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("duplicate seeds panic", func(t *testing.T) {
		assert.Panics(t, func() {
			NewUserRepository(models.NewUser("a@x.com", "h1", nil), models.NewUser("A@X.com", "h2", nil))
		})
	})

	t.Run("returned users are copies", func(t *testing.T) {
		repo := NewUserRepository(models.NewUser("a@x.com", "h", []string{"USER"}))

		got, err := repo.FindByIdentifier(ctx, "a@x.com")
		require.NoError(t, err)
		got.Roles[0] = "ADMIN"

		again, err := repo.FindByIdentifier(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"USER"}, again.Roles)
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := NewUserRepository()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := repo.FindByIdentifier(cctx, "a@x.com")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("concurrent access", func(t *testing.T) {
		repo := NewUserRepository()
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				email := fmt.Sprintf("user%d@x.com", i)
				assert.NoError(t, repo.Create(ctx, models.NewUser(email, "h", nil)))
				_, err := repo.FindByIdentifier(ctx, email)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
	})
}

func TestTransactionManager(t *testing.T) {
	called := false
	err := TransactionManager{}.InTransaction(context.Background(), func(ctx context.Context, tx repositories.Transaction) error {
		called = true
		assert.NoError(t, tx.Commit())
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
}
