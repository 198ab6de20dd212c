package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/planit/internal/repository"
)

// ProjectService is owner-only CRUD for projects.
type ProjectService struct {
	projects *repository.ProjectRepo
	logger   *slog.Logger
}

func NewProjectService(projects *repository.ProjectRepo, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{projects: projects, logger: logger}
}

func (s *ProjectService) Create(ctx context.Context, in ProjectInput, p Principal) (*ProjectDTO, error) {
	m := in.toModel()
	m.OwnerID = p.ID
	if err := s.projects.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return toProjectDTO(m), nil
}

func (s *ProjectService) GetByID(ctx context.Context, id uint64, p Principal) (*ProjectDTO, error) {
	m, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := AuthorizeOwner(m.OwnerID, p); err != nil {
		return nil, err
	}
	return toProjectDTO(m), nil
}

func (s *ProjectService) ListOwned(ctx context.Context, p Principal) ([]*ProjectDTO, error) {
	list, err := s.projects.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*ProjectDTO, 0, len(list))
	for _, m := range list {
		out = append(out, toProjectDTO(m))
	}
	return out, nil
}

func (s *ProjectService) Update(ctx context.Context, id uint64, in ProjectInput, p Principal) (*ProjectDTO, error) {
	cur, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := AuthorizeOwner(cur.OwnerID, p); err != nil {
		return nil, err
	}
	m := in.toModel()
	m.ID, m.OwnerID = id, p.ID
	if err := s.projects.UpdateByIDAndOwner(ctx, m); err != nil {
		return nil, fmt.Errorf("update project: %w", translate(err))
	}
	return toProjectDTO(m), nil
}

// Delete unlinks every action referencing the project, then removes it.
func (s *ProjectService) Delete(ctx context.Context, id uint64, p Principal) error {
	cur, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if err := AuthorizeOwner(cur.OwnerID, p); err != nil {
		return err
	}
	if err := s.projects.DeleteByIDAndOwner(ctx, id, p.ID); err != nil {
		return fmt.Errorf("delete project: %w", translate(err))
	}
	s.logger.InfoContext(ctx, "project deleted", "project_id", id, "owner_id", p.ID)
	return nil
}
