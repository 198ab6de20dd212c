package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planit/internal/model"
)

const contactColumns = "id, owner_id, name, surname, email, phone"

// ContactRepo encapsulates all database queries related to contacts.
type ContactRepo struct {
	db *sql.DB
}

func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func scanContact(row interface{ Scan(...any) error }, c *model.Contact) error {
	return row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Surname, &c.Email, &c.Phone)
}

// Create inserts a new contact and sets c.ID.
func (r *ContactRepo) Create(ctx context.Context, c *model.Contact) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contacts (owner_id, name, surname, email, phone) VALUES (?, ?, ?, ?, ?)",
		c.OwnerID, c.Name, c.Surname, c.Email, c.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID fetches a contact regardless of owner.  Callers enforce ownership.
func (r *ContactRepo) GetByID(ctx context.Context, id uint64) (*model.Contact, error) {
	var c model.Contact
	if err := scanContact(r.db.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = ?", id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByOwner returns all contacts of one owner ordered by id.
func (r *ContactRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

// ListByIDs returns the contacts among ids that exist, ordered by id.
func (r *ContactRepo) ListByIDs(ctx context.Context, ids []uint64) ([]*model.Contact, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id IN "+in+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]*model.Contact, error) {
	defer rows.Close()
	var out []*model.Contact
	for rows.Next() {
		c := new(model.Contact)
		if err := scanContact(rows, c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByIDAndOwner writes every editable field if the contact belongs to
// c.OwnerID.  Returns ErrNotFound when no such contact exists for that owner.
func (r *ContactRepo) UpdateByIDAndOwner(ctx context.Context, c *model.Contact) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := ensureOwned(ctx, tx, "contacts", c.ID, c.OwnerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE contacts SET name = ?, surname = ?, email = ?, phone = ? WHERE id = ? AND owner_id = ?",
			c.Name, c.Surname, c.Email, c.Phone, c.ID, c.OwnerID)
		return err
	})
}

// DeleteByIDAndOwner removes a contact and its action memberships.  A
// missing contact yields ErrNotFound, someone else's contact ErrForbidden.
func (r *ContactRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, "contacts", id, ownerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM action_members WHERE contact_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
		return err
	})
}

// ensureOwned confirms that table.id belongs to ownerID, returning ErrNotFound
// otherwise.  It takes no row lock.  The table name is always a constant supplied by this package.
func ensureOwned(ctx context.Context, q querier, table string, id, ownerID uint64) error {
	var found uint64
	err := q.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE id = ? AND owner_id = ?", id, ownerID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// checkOwner distinguishes a missing row (ErrNotFound) from a row owned by
// someone else (ErrForbidden).
func checkOwner(ctx context.Context, q querier, table string, id, ownerID uint64) error {
	var dbOwnerID uint64
	if err := q.QueryRowContext(ctx, "SELECT owner_id FROM "+table+" WHERE id = ?", id).Scan(&dbOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}
