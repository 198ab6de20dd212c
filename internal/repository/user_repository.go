package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/planit/internal/model"
	"github.com/iliyamo/planit/internal/utils"
)

const userColumns = "id, username, password_hash, role, name, surname, gender, created_at, updated_at"

// UserRepo persists users and runs the user-deletion cascade.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrUsernameExists is returned by Create when the username is taken.  It
// wraps ErrConflict.
var ErrUsernameExists = fmt.Errorf("%w: username already exists", ErrConflict)

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Name, &u.Surname, &u.Gender, &u.CreatedAt, &u.UpdatedAt)
}

// NormalizeUsername trims and lower-cases a username the way it is stored.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Create hashes the password, inserts the user and fills u.ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Username = NormalizeUsername(u.Username)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, name, surname, gender) VALUES (?,?,?,?,?,?)",
		u.Username, hash, u.Role, u.Name, u.Surname, u.Gender)
	if err != nil {
		if isDuplicate(err) {
			return ErrUsernameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		NormalizeUsername(username)), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// ListByIDs returns the users among ids that exist, ordered by id.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []uint64) ([]*model.User, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE id IN "+in+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

func scanUsers(rows *sql.Rows) ([]*model.User, error) {
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		u := new(model.User)
		if err := scanUser(rows, u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile writes the profile fields of u.  Returns ErrNotFound when
// the user does not exist.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var id uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", u.ID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE users SET name=?, surname=?, gender=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
			u.Name, u.Surname, u.Gender, u.ID)
		return err
	})
}

// SetRole changes the role of the named user.
func (r *UserRepo) SetRole(ctx context.Context, username, role string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE username=?", role, NormalizeUsername(username))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so
		// confirm the user really is missing before failing.
		if _, err := r.GetByUsername(ctx, username); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCascade removes a user and everything that depends on it inside a
// single transaction:
//
//  1. the user is unassigned from every action,
//  2. actions of any owner referencing the user's projects lose that reference,
//  3. the user's own actions are deleted with their join rows,
//  4. the user's contacts are deleted with their membership rows,
//  5. the user's projects are deleted,
//  6. the user's refresh tokens are deleted,
//  7. the user row is deleted.
//
// Returns ErrNotFound when the user does not exist; any other failure rolls
// the whole cascade back.
func (r *UserRepo) DeleteCascade(ctx context.Context, userID uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var id uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", userID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		steps := []string{
			`DELETE FROM action_assignees WHERE user_id = ?`,
			`UPDATE actions SET project_id = NULL
			 WHERE project_id IN (SELECT id FROM projects WHERE owner_id = ?)`,
			`DELETE FROM action_assignees
			 WHERE action_id IN (SELECT id FROM actions WHERE owner_id = ?)`,
			`DELETE FROM action_members
			 WHERE action_id IN (SELECT id FROM actions WHERE owner_id = ?)`,
			`DELETE FROM actions WHERE owner_id = ?`,
			`DELETE FROM action_members
			 WHERE contact_id IN (SELECT id FROM contacts WHERE owner_id = ?)`,
			`DELETE FROM contacts WHERE owner_id = ?`,
			`DELETE FROM projects WHERE owner_id = ?`,
			`DELETE FROM refresh_tokens WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, userID); err != nil {
				return err
			}
		}
		return nil
	})
}
