package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planit/internal/model"
)

const projectColumns = "id, owner_id, title, description"

// ProjectRepo encapsulates all database queries related to projects.
type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func scanProject(row interface{ Scan(...any) error }, p *model.Project) error {
	return row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description)
}

// Create inserts a new project and sets p.ID.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (owner_id, title, description) VALUES (?, ?, ?)",
		p.OwnerID, p.Title, p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a project regardless of owner.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	if err := scanProject(r.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns all projects of one owner ordered by id.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, err
	}
	return scanProjects(rows)
}

// ListByIDs returns the projects among ids that exist, ordered by id.
func (r *ProjectRepo) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Project, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id IN "+in+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	return scanProjects(rows)
}

func scanProjects(rows *sql.Rows) ([]*model.Project, error) {
	defer rows.Close()
	var out []*model.Project
	for rows.Next() {
		p := new(model.Project)
		if err := scanProject(rows, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByIDAndOwner writes title and description if the project belongs to
// p.OwnerID.  Returns ErrNotFound otherwise.
func (r *ProjectRepo) UpdateByIDAndOwner(ctx context.Context, p *model.Project) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureOwned(ctx, tx, "projects", p.ID, p.OwnerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE projects SET title = ?, description = ? WHERE id = ? AND owner_id = ?",
			p.Title, p.Description, p.ID, p.OwnerID)
		return err
	})
}

// DeleteByIDAndOwner unlinks every action that references the project and
// then removes the project, all in one transaction.  Referencing actions are
// kept.  A missing project yields ErrNotFound, someone else's ErrForbidden.
func (r *ProjectRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, "projects", id, ownerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE actions SET project_id = NULL WHERE project_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
		return err
	})
}
