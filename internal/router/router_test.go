package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/database"
	"github.com/iliyamo/planit/internal/handler"
	"github.com/iliyamo/planit/internal/repository"
	"github.com/iliyamo/planit/internal/service"
)

const testSecret = "router-test-secret"

func newServer(t *testing.T, conceal bool) *echo.Echo {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "planit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))

	userRepo := repository.NewUserRepo(db)
	contactRepo := repository.NewContactRepo(db)
	projectRepo := repository.NewProjectRepo(db)
	resolver := service.NewResolver(userRepo)
	errs := handler.ErrorMapper{ConcealForbidden: conceal}

	users := service.NewUserService(userRepo, repository.NewTokenRepo(db),
		service.AuthConfig{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4},
		service.NopAuditor{}, nil)
	actions := service.NewActionService(repository.NewActionRepo(db), contactRepo, projectRepo, userRepo, service.NopAuditor{}, nil)

	return New(Handlers{
		Auth:     handler.NewAuthHandler(users, resolver, testSecret, errs),
		Users:    handler.NewUserHandler(users, resolver, errs),
		Contacts: handler.NewContactHandler(service.NewContactService(contactRepo, nil), resolver, errs),
		Projects: handler.NewProjectHandler(service.NewProjectService(projectRepo, nil), resolver, errs),
		Actions:  handler.NewActionHandler(actions, resolver, errs),
	}, Options{JWTSecret: testSecret, DB: db})
}

func do(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// signup registers a user and returns its id and access token.
func signup(t *testing.T, e *echo.Echo, username string) (uint64, string) {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/auth/register", "", echo.Map{"username": username, "password": "password"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sess := decode[service.Session](t, rec)
	require.NotNil(t, sess.Refresh)
	return sess.User.ID, sess.Access.Token
}

func TestHealthAndMetrics(t *testing.T) {
	e := newServer(t, true)
	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/metrics", "", nil).Code)
}

func TestAPIRequiresToken(t *testing.T) {
	e := newServer(t, true)
	assert.Equal(t, http.StatusUnauthorized, do(t, e, http.MethodGet, "/api/actions", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, e, http.MethodGet, "/api/actions", "garbage", nil).Code)
}

func TestRegisterLoginAndDuplicate(t *testing.T) {
	e := newServer(t, true)
	signup(t, e, "alice")

	rec := do(t, e, http.MethodPost, "/auth/register", "", echo.Map{"username": "Alice", "password": "password"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, "/auth/login", "", echo.Map{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/auth/login", "", echo.Map{"username": "alice", "password": "password"})
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[service.Session](t, rec)
	require.NotNil(t, sess.Refresh)

	rec = do(t, e, http.MethodGet, "/api/users/me", sess.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[service.UserDTO](t, rec).Username)

	rec = do(t, e, http.MethodPost, "/auth/refresh", "", echo.Map{"refresh_token": sess.Refresh.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	// The rotated token is spent.
	rec = do(t, e, http.MethodPost, "/auth/refresh", "", echo.Map{"refresh_token": sess.Refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestActionAccessAcrossUsers(t *testing.T) {
	for _, conceal := range []bool{true, false} {
		t.Run(fmt.Sprintf("conceal=%v", conceal), func(t *testing.T) {
			e := newServer(t, conceal)
			_, ownerTok := signup(t, e, "owner")
			bobID, bobTok := signup(t, e, "bob")
			_, eveTok := signup(t, e, "eve")

			rec := do(t, e, http.MethodPost, "/api/actions", ownerTok, echo.Map{
				"title":             "write report",
				"due_date":          "2026-11-01",
				"assigned_user_ids": []uint64{bobID},
			})
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			created := decode[service.ActionDTO](t, rec)
			assert.Equal(t, []uint64{bobID}, created.AssignedUserIDs)
			path := fmt.Sprintf("/api/actions/%d", created.ID)

			// assignee can read but not modify
			assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, path, bobTok, nil).Code)
			rec = do(t, e, http.MethodGet, "/api/actions/assigned-to-me", bobTok, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decode[[]service.ActionDTO](t, rec), 1)

			denied := http.StatusForbidden
			if conceal {
				denied = http.StatusNotFound
			}
			assert.Equal(t, denied, do(t, e, http.MethodPut, path, bobTok, echo.Map{"title": "hijack"}).Code)
			assert.Equal(t, denied, do(t, e, http.MethodGet, path, eveTok, nil).Code)
			assert.Equal(t, denied, do(t, e, http.MethodDelete, path, eveTok, nil).Code)

			assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/api/actions/9999", ownerTok, nil).Code)
			assert.Equal(t, http.StatusBadRequest, do(t, e, http.MethodGet, "/api/actions/abc", ownerTok, nil).Code)

			assert.Equal(t, http.StatusNoContent, do(t, e, http.MethodDelete, path, ownerTok, nil).Code)
			assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, path, ownerTok, nil).Code)
		})
	}
}

func TestCreateActionValidation(t *testing.T) {
	e := newServer(t, true)
	_, tok := signup(t, e, "owner")

	rec := do(t, e, http.MethodPost, "/api/actions", tok, echo.Map{"notes": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/actions", tok, echo.Map{"title": "x", "due_date": "tomorrow"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectAndContactCRUD(t *testing.T) {
	e := newServer(t, true)
	_, tok := signup(t, e, "owner")

	rec := do(t, e, http.MethodPost, "/api/projects", tok, echo.Map{"title": "launch"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[service.ProjectDTO](t, rec)

	rec = do(t, e, http.MethodPost, "/api/contacts", tok, echo.Map{"surname": "Smith", "email": "s@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	contact := decode[service.ContactDTO](t, rec)

	rec = do(t, e, http.MethodPost, "/api/actions", tok, echo.Map{
		"title":      "kickoff",
		"project_id": project.ID,
		"member_ids": []uint64{contact.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	action := decode[service.ActionDTO](t, rec)
	require.NotNil(t, action.Project)
	assert.Equal(t, "launch", action.Project.Title)
	assert.Equal(t, []uint64{contact.ID}, action.MemberIDs)

	assert.Equal(t, http.StatusNoContent, do(t, e, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), tok, nil).Code)
	rec = do(t, e, http.MethodGet, fmt.Sprintf("/api/actions/%d", action.ID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[service.ActionDTO](t, rec).ProjectID)

	rec = do(t, e, http.MethodGet, "/api/contacts", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.ContactDTO](t, rec), 1)
}

func TestDeleteUserCascades(t *testing.T) {
	e := newServer(t, true)
	aliceID, aliceTok := signup(t, e, "alice")
	_, bobTok := signup(t, e, "bob")

	rec := do(t, e, http.MethodPost, "/api/actions", aliceTok, echo.Map{"title": "mine"})
	require.Equal(t, http.StatusCreated, rec.Code)

	userPath := fmt.Sprintf("/api/users/%d", aliceID)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodDelete, userPath, bobTok, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, e, http.MethodDelete, userPath, aliceTok, nil).Code)

	// The token outlives the user, but the user no longer resolves.
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, "/api/actions", aliceTok, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, e, http.MethodGet, userPath, bobTok, nil).Code)
}
