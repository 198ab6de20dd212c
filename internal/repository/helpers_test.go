package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/planit/internal/database"
	"github.com/iliyamo/planit/internal/model"
)

// newTestDB opens a migrated SQLite database in a temp directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "planit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))
	return db
}

func createUser(t *testing.T, db *sql.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Name: "N", Surname: "S"}
	require.NoError(t, NewUserRepo(db).Create(context.Background(), u, "secret", 4))
	return u
}

// linkForeign points an action at a project and contacts directly, so
// cascades can be tested against references whose owners differ.
func linkForeign(t *testing.T, db *sql.DB, actionID, projectID uint64, contactIDs ...uint64) {
	t.Helper()
	ctx := context.Background()
	_, err := db.ExecContext(ctx, "UPDATE actions SET project_id = ? WHERE id = ?", projectID, actionID)
	require.NoError(t, err)
	for _, id := range contactIDs {
		_, err := db.ExecContext(ctx, "INSERT INTO action_members (action_id, contact_id) VALUES (?, ?)", actionID, id)
		require.NoError(t, err)
	}
}
