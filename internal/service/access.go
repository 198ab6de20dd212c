package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/planit/internal/model"
	"github.com/iliyamo/planit/internal/repository"
)

// Principal is the authenticated user a request acts for.  It is passed
// explicitly to every authorization-gated call.
type Principal struct {
	ID       uint64
	Username string
	Role     string
}

// IsAdmin reports whether the principal carries the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// PrincipalOf builds a principal from a stored user.
func PrincipalOf(u *model.User) Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// AuthorizeOwner allows the call only when p owns the entity.
func AuthorizeOwner(ownerID uint64, p Principal) error {
	if ownerID != p.ID {
		return ErrAccessDenied
	}
	return nil
}

// AuthorizeReadAction allows the owner and every assigned user.
func AuthorizeReadAction(a *model.Action, p Principal) error {
	if a.OwnerID == p.ID || a.IsAssigned(p.ID) {
		return nil
	}
	return ErrAccessDenied
}

// Resolver maps the username carried by a token to a principal.
type Resolver struct {
	users *repository.UserRepo
}

func NewResolver(users *repository.UserRepo) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns ErrNotFound when no such user exists, which happens for
// tokens that outlive their user.
func (r *Resolver) Resolve(ctx context.Context, username string) (Principal, error) {
	if strings.TrimSpace(username) == "" {
		return Principal{}, ErrNotFound
	}
	u, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	return PrincipalOf(u), nil
}
