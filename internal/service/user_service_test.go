package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/model"
	"github.com/iliyamo/planit/internal/queue"
	"github.com/iliyamo/planit/internal/utils"
)

func TestUserService_RegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	sess, err := e.users.Register(ctx, RegisterInput{Username: "Alice", Password: "password", Name: "Alice", Surname: "Smith", Gender: "F"})
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.User.Username)
	assert.Equal(t, model.RoleUser, sess.User.Role)
	require.NotNil(t, sess.Refresh)

	_, err = e.users.Register(ctx, RegisterInput{Username: "alice", Password: "other-password"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = e.users.Register(ctx, RegisterInput{Username: " ", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.users.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.users.Login(ctx, "nobody", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, e.audit.events)

	login, err := e.users.Login(utils.WithRequestID(ctx, "req-9"), "ALICE", "password")
	require.NoError(t, err)
	claims, err := utils.ParseAccessToken("test-secret", login.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, sess.User.ID, claims.UserID)

	require.Len(t, e.audit.events, 1)
	ev := e.audit.events[0]
	assert.Equal(t, queue.KindLogin, ev.Kind)
	assert.Equal(t, "alice", ev.Login.Username)
	assert.Equal(t, "req-9", ev.Login.RequestID)
	assert.Equal(t, "Smith", ev.Login.User.Surname)
}

func TestUserService_RefreshRotationAndLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sess, err := e.users.Register(ctx, RegisterInput{Username: "bob", Password: "password"})
	require.NoError(t, err)

	access, err := e.users.RefreshAccess(ctx, sess.Refresh.Token)
	require.NoError(t, err)
	assert.Nil(t, access.Refresh)
	assert.NotEmpty(t, access.Access.Token)

	rotated, err := e.users.Refresh(ctx, sess.Refresh.Token)
	require.NoError(t, err)
	require.NotNil(t, rotated.Refresh)
	assert.NotEqual(t, sess.Refresh.Token, rotated.Refresh.Token)

	_, err = e.users.Refresh(ctx, sess.Refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = e.users.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, e.users.Logout(ctx, rotated.Refresh.Token, nil))
	assert.ErrorIs(t, e.users.Logout(ctx, rotated.Refresh.Token, nil), ErrInvalidCredentials)
	assert.ErrorIs(t, e.users.Logout(ctx, "", nil), ErrInvalidInput)

	other, err := e.users.Login(ctx, "bob", "password")
	require.NoError(t, err)
	p := Principal{ID: other.User.ID, Username: "bob", Role: model.RoleUser}
	require.NoError(t, e.users.Logout(ctx, "", &p))
	_, err = e.users.RefreshAccess(ctx, other.Refresh.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Profiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.register(t, "a")
	b := e.register(t, "b")

	me, err := e.users.Me(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "a-name", me.Name)

	_, err = e.users.UpdateProfile(ctx, b.ID, ProfileInput{Name: "evil"}, a)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = e.users.UpdateProfile(ctx, 999, ProfileInput{}, a)
	assert.ErrorIs(t, err, ErrNotFound)

	upd, err := e.users.UpdateProfile(ctx, a.ID, ProfileInput{Name: "Ann", Surname: "Lee", Gender: "F"}, a)
	require.NoError(t, err)
	assert.Equal(t, "Lee", upd.Surname)

	require.NoError(t, e.users.BootstrapAdmin(ctx, "b"))
	require.NoError(t, e.users.BootstrapAdmin(ctx, "not-yet"))
	admin, err := e.resolver.Resolve(ctx, "b")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	_, err = e.users.UpdateProfile(ctx, a.ID, ProfileInput{Name: "By admin"}, admin)
	assert.NoError(t, err)

	list, err := e.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	sum, err := e.users.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "By admin", sum.Name)
	_, err = e.users.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_DeleteCascadeScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.register(t, "a")
	b := e.register(t, "b")
	c := e.register(t, "c")

	p1, err := e.projects.Create(ctx, ProjectInput{Title: "P1"}, a)
	require.NoError(t, err)
	contact, err := e.contacts.Create(ctx, ContactInput{Surname: "Doe"}, a)
	require.NoError(t, err)
	t1, err := e.actions.Create(ctx, ActionInput{Title: "T1", ProjectID: &p1.ID, AssignedUserIDs: []uint64{b.ID}}, a)
	require.NoError(t, err)
	t2, err := e.actions.Create(ctx, ActionInput{Title: "T2", AssignedUserIDs: []uint64{a.ID, b.ID}}, c)
	require.NoError(t, err)
	t3, err := e.actions.Create(ctx, ActionInput{Title: "T3"}, c)
	require.NoError(t, err)
	_, err = e.db.ExecContext(ctx, "UPDATE actions SET project_id = ? WHERE id = ?", p1.ID, t3.ID)
	require.NoError(t, err)
	_, err = e.db.ExecContext(ctx, "INSERT INTO action_members (action_id, contact_id) VALUES (?, ?)", t3.ID, contact.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, e.users.Delete(ctx, a.ID, b), ErrAccessDenied)
	require.NoError(t, e.users.Delete(ctx, a.ID, a))

	_, err = e.resolver.Resolve(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.projects.GetByID(ctx, p1.ID, a)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.contacts.GetByID(ctx, contact.ID, a)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.actions.GetByID(ctx, t1.ID, b)
	assert.ErrorIs(t, err, ErrNotFound)

	got2, err := e.actions.GetByID(ctx, t2.ID, c)
	require.NoError(t, err)
	assert.Equal(t, []uint64{b.ID}, got2.AssignedUserIDs)
	assert.Equal(t, c.ID, got2.OwnerID)

	got3, err := e.actions.GetByID(ctx, t3.ID, c)
	require.NoError(t, err)
	assert.Nil(t, got3.ProjectID)
	assert.Empty(t, got3.MemberIDs)

	assigned, err := e.actions.ListAssigned(ctx, b)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, t2.ID, assigned[0].ID)

	assert.ErrorIs(t, e.users.Delete(ctx, a.ID, a), ErrNotFound)
}

func TestUserService_DeleteRollsBackOnFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.register(t, "a")
	c := e.register(t, "c")

	_, err := e.projects.Create(ctx, ProjectInput{Title: "P"}, a)
	require.NoError(t, err)
	t2, err := e.actions.Create(ctx, ActionInput{Title: "T2", AssignedUserIDs: []uint64{a.ID}}, c)
	require.NoError(t, err)

	_, err = e.db.Exec(`CREATE TRIGGER block_project_delete BEFORE DELETE ON projects
		BEGIN SELECT RAISE(ABORT, 'projects are locked'); END`)
	require.NoError(t, err)

	err = e.users.Delete(ctx, a.ID, a)
	require.ErrorIs(t, err, ErrDeletionFailed)
	assert.Contains(t, err.Error(), "projects are locked")

	_, err = e.resolver.Resolve(ctx, "a")
	assert.NoError(t, err)
	got, err := e.actions.GetByID(ctx, t2.ID, c)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a.ID}, got.AssignedUserIDs)
}
