package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/model"
)

func TestAuthorizeOwner(t *testing.T) {
	assert.NoError(t, AuthorizeOwner(1, Principal{ID: 1}))
	assert.ErrorIs(t, AuthorizeOwner(1, Principal{ID: 2}), ErrAccessDenied)
	assert.ErrorIs(t, AuthorizeOwner(1, Principal{ID: 2, Role: model.RoleAdmin}), ErrAccessDenied)
}

func TestAuthorizeReadAction(t *testing.T) {
	a := &model.Action{OwnerID: 1, AssignedUserIDs: []uint64{2, 3}}
	for _, tc := range []struct {
		id      uint64
		allowed bool
	}{{1, true}, {2, true}, {3, true}, {4, false}} {
		err := AuthorizeReadAction(a, Principal{ID: tc.id})
		if tc.allowed {
			assert.NoError(t, err, "user %d", tc.id)
		} else {
			assert.ErrorIs(t, err, ErrAccessDenied, "user %d", tc.id)
		}
	}
}

func TestResolver(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")

	p, err := e.resolver.Resolve(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.ID)
	assert.Equal(t, model.RoleUser, p.Role)

	_, err = e.resolver.Resolve(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.resolver.Resolve(ctx, " ")
	assert.ErrorIs(t, err, ErrNotFound)
}
