//go:build integration

package repomanager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/dbx"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *PostgresRepositoryManager {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := dbx.OpenPostgres(ctx, dsn)
	require.NoError(t, err)

	m := NewPostgresRepositoryManager(db)
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.RunMigrations(ctx))
	return m
}

func TestPostgres_Users(t *testing.T) {
	m := setupPostgres(t)
	ctx := context.Background()
	repo := m.Users()

	alice, err := repo.CreateIfAbsent(ctx, &models.User{UserName: "alice", PasswordHash: "h1", Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)

	bob, err := repo.CreateIfAbsent(ctx, &models.User{UserName: "bob", PasswordHash: "h2", Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), bob.ID)

	_, err = repo.CreateIfAbsent(ctx, &models.User{UserName: "alice", PasswordHash: "h3", Role: "user"})
	require.ErrorIs(t, err, common.ErrUsernameTaken)

	_, err = repo.CreateIfAbsent(ctx, &models.User{UserName: "Alice", PasswordHash: "h4", Role: "user"})
	require.NoError(t, err, "usernames are case-sensitive")

	got, err := repo.GetUserByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	_, err = repo.GetUserByLogin(ctx, "carol")
	require.ErrorIs(t, err, common.ErrorNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestPostgres_ConcurrentRegistration(t *testing.T) {
	m := setupPostgres(t)
	ctx := context.Background()
	repo := m.Users()

	const n = 20
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateIfAbsent(ctx, &models.User{UserName: "race", PasswordHash: fmt.Sprint(i), Role: "user"})
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, common.ErrUsernameTaken)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateIfAbsent(ctx, &models.User{UserName: fmt.Sprintf("u%d", i), PasswordHash: "h", Role: "user"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	seen := map[int64]bool{}
	for _, u := range list {
		assert.False(t, seen[u.ID], "duplicate id %d", u.ID)
		seen[u.ID] = true
	}
	assert.Len(t, list, n+1)
}

func TestPostgres_Collections(t *testing.T) {
	m := setupPostgres(t)
	ctx := context.Background()
	repo := m.Collections()

	shoe, err := repo.Create(ctx, "products", map[string]any{"name": "Shoe", "price": 10, "stock": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), shoe.ID)

	_, err = repo.Create(ctx, "products", map[string]any{"name": "Hat", "price": 5})
	require.NoError(t, err)

	other, err := repo.Create(ctx, "cart", map[string]any{"userId": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), other.ID, "ids are per collection")

	found, err := repo.List(ctx, "products", map[string]string{"price": "10"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Shoe", found[0].Body["name"])

	patched, err := repo.Patch(ctx, "products", 1, map[string]any{"stock": 2})
	require.NoError(t, err)
	assert.Equal(t, "Shoe", patched.Body["name"])
	assert.EqualValues(t, 2, patched.Body["stock"])

	replaced, err := repo.Replace(ctx, "products", 1, map[string]any{"name": "Boot"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Boot"}, replaced.Body)

	require.NoError(t, repo.Delete(ctx, "products", 1))
	_, err = repo.Get(ctx, "products", 1)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "products", 1), common.ErrorNotFound)
}
