package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/model"
)

func TestUserRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	u := &model.User{Username: "  Alice ", Name: "Alice", Surname: "Smith", Gender: "F"}
	require.NoError(t, repo.Create(ctx, u, "pw", 4))
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, model.RoleUser, u.Role)

	got, err := repo.GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Smith", got.Surname)
	assert.NotEqual(t, "pw", got.PasswordHash)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepo(db)
	createUser(t, db, "bob")

	err := repo.Create(context.Background(), &model.User{Username: "Bob"}, "pw", 4)
	assert.ErrorIs(t, err, ErrUsernameExists)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserRepo_UpdateProfileAndRole(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()
	u := createUser(t, db, "carol")

	u.Name, u.Surname, u.Gender = "Caroline", "Jones", "F"
	require.NoError(t, repo.UpdateProfile(ctx, u))
	require.NoError(t, repo.SetRole(ctx, "carol", model.RoleAdmin))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Caroline", got.Name)
	assert.Equal(t, "Jones", got.Surname)
	assert.True(t, got.IsAdmin())

	assert.ErrorIs(t, repo.UpdateProfile(ctx, &model.User{ID: 999}), ErrNotFound)
	assert.ErrorIs(t, repo.SetRole(ctx, "nobody", model.RoleAdmin), ErrNotFound)
}

func TestUserRepo_ListByIDsSkipsUnknown(t *testing.T) {
	db := newTestDB(t)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	got, err := NewUserRepo(db).ListByIDs(context.Background(), []uint64{b.ID, 999, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestUserRepo_DeleteCascade(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)
	projects := NewProjectRepo(db)
	contacts := NewContactRepo(db)
	actions := NewActionRepo(db)
	tokens := NewTokenRepo(db)

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")

	p1 := &model.Project{OwnerID: a.ID, Title: "P1"}
	require.NoError(t, projects.Create(ctx, p1))
	ca := &model.Contact{OwnerID: a.ID, Surname: "Doe"}
	require.NoError(t, contacts.Create(ctx, ca))
	require.NoError(t, tokens.StoreRefresh(ctx, a.ID, "hash-a", time.Now().Add(time.Hour)))

	t1 := &model.Action{OwnerID: a.ID, Title: "T1", ProjectID: &p1.ID, MemberIDs: []uint64{ca.ID}, AssignedUserIDs: []uint64{b.ID}}
	require.NoError(t, actions.Create(ctx, t1))
	t2 := &model.Action{OwnerID: c.ID, Title: "T2", AssignedUserIDs: []uint64{a.ID, b.ID}}
	require.NoError(t, actions.Create(ctx, t2))
	t3 := &model.Action{OwnerID: c.ID, Title: "T3"}
	require.NoError(t, actions.Create(ctx, t3))
	linkForeign(t, db, t3.ID, p1.ID, ca.ID)

	require.NoError(t, users.DeleteCascade(ctx, a.ID))

	_, err := users.GetByUsername(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = actions.GetByID(ctx, t1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = projects.GetByID(ctx, p1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = contacts.GetByID(ctx, ca.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = tokens.Lookup(ctx, "hash-a")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	got2, err := actions.GetByID(ctx, t2.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b.ID}, got2.AssignedUserIDs)
	assert.Equal(t, c.ID, got2.OwnerID)

	got3, err := actions.GetByID(ctx, t3.ID)
	require.NoError(t, err)
	assert.Nil(t, got3.ProjectID)
	assert.Empty(t, got3.MemberIDs)

	assert.ErrorIs(t, users.DeleteCascade(ctx, a.ID), ErrNotFound)
}
