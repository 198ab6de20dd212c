package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/database"
	"github.com/iliyamo/planit/internal/queue"
	"github.com/iliyamo/planit/internal/repository"
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recordingAuditor) Publish(_ context.Context, ev queue.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingAuditor) labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Label()
	}
	return out
}

type env struct {
	db       *sql.DB
	audit    *recordingAuditor
	users    *UserService
	actions  *ActionService
	projects *ProjectService
	contacts *ContactService
	resolver *Resolver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "planit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))

	userRepo := repository.NewUserRepo(db)
	contactRepo := repository.NewContactRepo(db)
	projectRepo := repository.NewProjectRepo(db)
	audit := &recordingAuditor{}
	return &env{
		db:    db,
		audit: audit,
		users: NewUserService(userRepo, repository.NewTokenRepo(db),
			AuthConfig{JWTSecret: "test-secret", AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}, audit, nil),
		actions:  NewActionService(repository.NewActionRepo(db), contactRepo, projectRepo, userRepo, audit, nil),
		projects: NewProjectService(projectRepo, nil),
		contacts: NewContactService(contactRepo, nil),
		resolver: NewResolver(userRepo),
	}
}

// register creates a user and returns it as a principal.
func (e *env) register(t *testing.T, username string) Principal {
	t.Helper()
	sess, err := e.users.Register(context.Background(), RegisterInput{Username: username, Password: "password", Name: username + "-name"})
	require.NoError(t, err)
	return Principal{ID: sess.User.ID, Username: sess.User.Username, Role: sess.User.Role}
}

func ptr[T any](v T) *T { return &v }
