package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/planit/internal/repository"
)

// ContactService is owner-only CRUD for contacts.
type ContactService struct {
	contacts *repository.ContactRepo
	logger   *slog.Logger
}

func NewContactService(contacts *repository.ContactRepo, logger *slog.Logger) *ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{contacts: contacts, logger: logger}
}

func (s *ContactService) Create(ctx context.Context, in ContactInput, p Principal) (*ContactDTO, error) {
	m, err := in.toModel()
	if err != nil {
		return nil, err
	}
	m.OwnerID = p.ID
	if err := s.contacts.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return toContactDTO(m), nil
}

func (s *ContactService) GetByID(ctx context.Context, id uint64, p Principal) (*ContactDTO, error) {
	m, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := AuthorizeOwner(m.OwnerID, p); err != nil {
		return nil, err
	}
	return toContactDTO(m), nil
}

func (s *ContactService) ListOwned(ctx context.Context, p Principal) ([]*ContactDTO, error) {
	list, err := s.contacts.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*ContactDTO, 0, len(list))
	for _, m := range list {
		out = append(out, toContactDTO(m))
	}
	return out, nil
}

func (s *ContactService) Update(ctx context.Context, id uint64, in ContactInput, p Principal) (*ContactDTO, error) {
	cur, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := AuthorizeOwner(cur.OwnerID, p); err != nil {
		return nil, err
	}
	m, err := in.toModel()
	if err != nil {
		return nil, err
	}
	m.ID, m.OwnerID = id, p.ID
	if err := s.contacts.UpdateByIDAndOwner(ctx, m); err != nil {
		return nil, fmt.Errorf("update contact: %w", translate(err))
	}
	return toContactDTO(m), nil
}

// Delete removes the contact and its action memberships.
func (s *ContactService) Delete(ctx context.Context, id uint64, p Principal) error {
	cur, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if err := AuthorizeOwner(cur.OwnerID, p); err != nil {
		return err
	}
	if err := s.contacts.DeleteByIDAndOwner(ctx, id, p.ID); err != nil {
		return fmt.Errorf("delete contact: %w", translate(err))
	}
	s.logger.InfoContext(ctx, "contact deleted", "contact_id", id, "owner_id", p.ID)
	return nil
}
