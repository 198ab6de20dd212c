package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/planit/internal/model"
)

// DateLayout is the storage and wire format of an action's due date.
const DateLayout = "2006-01-02"

const actionColumns = "a.id, a.owner_id, a.project_id, a.title, a.completed, a.due_date, a.notes, a.priority"

// ActionRepo stores actions together with their member and assignee join
// rows.  Every multi-statement write runs in one transaction.
type ActionRepo struct {
	db *sql.DB
}

func NewActionRepo(db *sql.DB) *ActionRepo {
	return &ActionRepo{db: db}
}

func scanAction(row interface{ Scan(...any) error }, a *model.Action) error {
	var (
		projectID sql.NullInt64
		dueDate   sql.NullTime
		priority  sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &projectID, &a.Title, &a.Completed, &dueDate, &a.Notes, &priority); err != nil {
		return err
	}
	a.ProjectID, a.DueDate, a.Priority = nil, nil, nil
	if projectID.Valid {
		id := uint64(projectID.Int64)
		a.ProjectID = &id
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC().Truncate(24 * time.Hour)
		a.DueDate = &d
	}
	if priority.Valid {
		p := int(priority.Int64)
		a.Priority = &p
	}
	return nil
}

// dbArgs converts the nullable fields of a to driver arguments.  The due
// date is written as a YYYY-MM-DD string so MySQL DATE and SQLite agree.
func dbArgs(a *model.Action) (projectID, dueDate, priority any) {
	if a.ProjectID != nil {
		projectID = *a.ProjectID
	}
	if a.DueDate != nil {
		dueDate = a.DueDate.Format(DateLayout)
	}
	if a.Priority != nil {
		priority = *a.Priority
	}
	return projectID, dueDate, priority
}

// Create inserts a, resolving a.MemberIDs against the owner's contacts and
// a.AssignedUserIDs against users.  Ids that do not resolve are dropped; on
// return both slices hold the stored sets.  A non-nil a.ProjectID that is
// not a project of the owner yields ErrNotFound and nothing is written.
func (r *ActionRepo) Create(ctx context.Context, a *model.Action) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := projectOwned(ctx, tx, a.ProjectID, a.OwnerID); err != nil {
			return err
		}
		projectID, dueDate, priority := dbArgs(a)
		res, err := tx.ExecContext(ctx,
			"INSERT INTO actions (owner_id, project_id, title, completed, due_date, notes, priority) VALUES (?, ?, ?, ?, ?, ?, ?)",
			a.OwnerID, projectID, a.Title, a.Completed, dueDate, a.Notes, priority)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		a.ID = uint64(id)
		return writeRelations(ctx, tx, a)
	})
}

// GetByID loads an action and its relation sets regardless of owner.
func (r *ActionRepo) GetByID(ctx context.Context, id uint64) (*model.Action, error) {
	a := new(model.Action)
	err := scanAction(r.db.QueryRowContext(ctx, "SELECT "+actionColumns+" FROM actions a WHERE a.id = ?", id), a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := loadRelations(ctx, r.db, []*model.Action{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// ListByOwner returns the actions owned by ownerID ordered by id.
func (r *ActionRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Action, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+actionColumns+" FROM actions a WHERE a.owner_id = ? ORDER BY a.id", ownerID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// ListAssignedTo returns the actions userID is assigned to ordered by id.
func (r *ActionRepo) ListAssignedTo(ctx context.Context, userID uint64) ([]*model.Action, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+actionColumns+` FROM actions a
		 JOIN action_assignees aa ON aa.action_id = a.id
		 WHERE aa.user_id = ? ORDER BY a.id`, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

// collect drains and closes rows before loading relations, so a single
// connection pool is never asked for a second statement mid-iteration.
func (r *ActionRepo) collect(ctx context.Context, rows *sql.Rows) ([]*model.Action, error) {
	var out []*model.Action
	err := func() error {
		defer rows.Close()
		for rows.Next() {
			a := new(model.Action)
			if err := scanAction(rows, a); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	}()
	if err != nil {
		return nil, err
	}
	if err := loadRelations(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByIDAndOwner replaces every field of the action a.ID owned by
// a.OwnerID, including its project reference and both relation sets.  The
// sets are resolved like Create.  Returns ErrNotFound when the action does
// not exist for that owner or when a.ProjectID is not the owner's.
func (r *ActionRepo) UpdateByIDAndOwner(ctx context.Context, a *model.Action) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureOwned(ctx, tx, "actions", a.ID, a.OwnerID); err != nil {
			return err
		}
		if err := projectOwned(ctx, tx, a.ProjectID, a.OwnerID); err != nil {
			return err
		}
		projectID, dueDate, priority := dbArgs(a)
		if _, err := tx.ExecContext(ctx,
			`UPDATE actions SET project_id = ?, title = ?, completed = ?, due_date = ?, notes = ?, priority = ?
			 WHERE id = ? AND owner_id = ?`,
			projectID, a.Title, a.Completed, dueDate, a.Notes, priority, a.ID, a.OwnerID); err != nil {
			return err
		}
		if err := deleteRelations(ctx, tx, a.ID); err != nil {
			return err
		}
		return writeRelations(ctx, tx, a)
	})
}

// DeleteByIDAndOwner removes the action and its join rows.  A missing
// action yields ErrNotFound, someone else's ErrForbidden.
func (r *ActionRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, "actions", id, ownerID); err != nil {
			return err
		}
		if err := deleteRelations(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM actions WHERE id = ?", id)
		return err
	})
}

// projectOwned accepts a nil project or one owned by ownerID.  Anything else
// is ErrNotFound.
func projectOwned(ctx context.Context, q querier, projectID *uint64, ownerID uint64) error {
	if projectID == nil {
		return nil
	}
	return ensureOwned(ctx, q, "projects", *projectID, ownerID)
}

func deleteRelations(ctx context.Context, tx *sql.Tx, actionID uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM action_members WHERE action_id = ?", actionID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "DELETE FROM action_assignees WHERE action_id = ?", actionID)
	return err
}

// writeRelations inserts the join rows for ids that resolve and reads the
// stored sets back into a.  Members must be contacts of the action owner;
// assignees may be any user.
func writeRelations(ctx context.Context, tx *sql.Tx, a *model.Action) error {
	if ids := uniqueIDs(a.MemberIDs); len(ids) > 0 {
		in, args := inClause(ids)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO action_members (action_id, contact_id) SELECT ?, id FROM contacts WHERE owner_id = ? AND id IN "+in,
			append([]any{a.ID, a.OwnerID}, args...)...); err != nil {
			return err
		}
	}
	if ids := uniqueIDs(a.AssignedUserIDs); len(ids) > 0 {
		in, args := inClause(ids)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO action_assignees (action_id, user_id) SELECT ?, id FROM users WHERE id IN "+in,
			append([]any{a.ID}, args...)...); err != nil {
			return err
		}
	}
	return loadRelations(ctx, tx, []*model.Action{a})
}

// loadRelations fills MemberIDs and AssignedUserIDs of every action with two
// batched queries.  Sets are ordered by id and never nil.
func loadRelations(ctx context.Context, q querier, actions []*model.Action) error {
	if len(actions) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.Action, len(actions))
	ids := make([]uint64, 0, len(actions))
	for _, a := range actions {
		a.MemberIDs, a.AssignedUserIDs = []uint64{}, []uint64{}
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	in, args := inClause(ids)

	members, err := loadPairs(ctx, q, "SELECT action_id, contact_id FROM action_members WHERE action_id IN "+in+" ORDER BY action_id, contact_id", args)
	if err != nil {
		return err
	}
	for _, p := range members {
		byID[p[0]].MemberIDs = append(byID[p[0]].MemberIDs, p[1])
	}
	assignees, err := loadPairs(ctx, q, "SELECT action_id, user_id FROM action_assignees WHERE action_id IN "+in+" ORDER BY action_id, user_id", args)
	if err != nil {
		return err
	}
	for _, p := range assignees {
		byID[p[0]].AssignedUserIDs = append(byID[p[0]].AssignedUserIDs, p[1])
	}
	return nil
}

func loadPairs(ctx context.Context, q querier, query string, args []any) ([][2]uint64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][2]uint64
	for rows.Next() {
		var p [2]uint64
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
