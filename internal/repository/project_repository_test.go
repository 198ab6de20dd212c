package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/model"
)

func TestProjectRepo_DeleteClearsActionRefs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	projects := NewProjectRepo(db)
	actions := NewActionRepo(db)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	p := &model.Project{OwnerID: a.ID, Title: "Launch", Description: "v1"}
	require.NoError(t, projects.Create(ctx, p))

	mine := &model.Action{OwnerID: a.ID, Title: "mine", ProjectID: &p.ID}
	require.NoError(t, actions.Create(ctx, mine))
	theirs := &model.Action{OwnerID: b.ID, Title: "theirs"}
	require.NoError(t, actions.Create(ctx, theirs))
	linkForeign(t, db, theirs.ID, p.ID)

	assert.ErrorIs(t, projects.DeleteByIDAndOwner(ctx, p.ID, b.ID), ErrForbidden)
	require.NoError(t, projects.DeleteByIDAndOwner(ctx, p.ID, a.ID))

	for _, id := range []uint64{mine.ID, theirs.ID} {
		got, err := actions.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got.ProjectID)
	}
	_, err := projects.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, projects.DeleteByIDAndOwner(ctx, p.ID, a.ID), ErrNotFound)
}

func TestProjectRepo_UpdateAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepo(db)
	a := createUser(t, db, "a")

	p := &model.Project{OwnerID: a.ID, Title: "one"}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Create(ctx, &model.Project{OwnerID: a.ID, Title: "two"}))

	p.Title = "uno"
	require.NoError(t, repo.UpdateByIDAndOwner(ctx, p))

	list, err := repo.ListByOwner(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "uno", list[0].Title)

	byIDs, err := repo.ListByIDs(ctx, []uint64{p.ID, 42})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)
}
