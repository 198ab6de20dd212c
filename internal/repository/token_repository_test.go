package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepo_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTokenRepo(db)
	u := createUser(t, db, "alice")

	require.NoError(t, repo.StoreRefresh(ctx, u.ID, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, repo.StoreRefresh(ctx, u.ID, "h2", time.Now().Add(time.Hour)))
	require.NoError(t, repo.StoreRefresh(ctx, u.ID, "old", time.Now().Add(-time.Hour)))

	id, err := repo.Lookup(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = repo.Lookup(ctx, "old")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = repo.Consume(ctx, "old")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = repo.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	id, err = repo.Consume(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	_, err = repo.Consume(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = repo.Lookup(ctx, "h1")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	require.NoError(t, repo.RevokeAllForUser(ctx, u.ID))
	_, err = repo.Lookup(ctx, "h2")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRepo_ConsumeOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTokenRepo(db)
	u := createUser(t, db, "alice")
	require.NoError(t, repo.StoreRefresh(ctx, u.ID, "h", time.Now().Add(time.Hour)))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Consume(ctx, "h"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}
