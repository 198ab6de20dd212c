package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/planit/internal/model"
	"github.com/iliyamo/planit/internal/queue"
	"github.com/iliyamo/planit/internal/repository"
)

// ActionService applies the action visibility rules: the owner may do
// anything, an assigned user may only read.
type ActionService struct {
	actions  *repository.ActionRepo
	contacts *repository.ContactRepo
	projects *repository.ProjectRepo
	users    *repository.UserRepo
	audit    Auditor
	logger   *slog.Logger
}

func NewActionService(actions *repository.ActionRepo, contacts *repository.ContactRepo, projects *repository.ProjectRepo,
	users *repository.UserRepo, audit Auditor, logger *slog.Logger) *ActionService {
	if audit == nil {
		audit = NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionService{actions: actions, contacts: contacts, projects: projects, users: users, audit: audit, logger: logger}
}

// Create stores a new action owned by p.  Unknown member and assignee ids
// are dropped; an unknown project id fails with ErrNotFound.
func (s *ActionService) Create(ctx context.Context, in ActionInput, p Principal) (*ActionDTO, error) {
	a, err := in.toModel()
	if err != nil {
		return nil, err
	}
	a.OwnerID = p.ID
	if err := s.actions.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create action: %w", translate(err))
	}
	out, err := s.present(ctx, a)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "action created", "action_id", a.ID, "owner_id", p.ID)
	emitAction(ctx, s.audit, queue.LabelActionCreated, out)
	return out, nil
}

// GetByID returns the action if p owns it or is assigned to it.
func (s *ActionService) GetByID(ctx context.Context, id uint64, p Principal) (*ActionDTO, error) {
	a, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := AuthorizeReadAction(a, p); err != nil {
		return nil, err
	}
	return s.present(ctx, a)
}

// ListOwned returns the actions p owns.
func (s *ActionService) ListOwned(ctx context.Context, p Principal) ([]*ActionDTO, error) {
	list, err := s.actions.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.presentAll(ctx, list)
}

// ListAssigned returns the actions p is assigned to.
func (s *ActionService) ListAssigned(ctx context.Context, p Principal) ([]*ActionDTO, error) {
	list, err := s.actions.ListAssignedTo(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.presentAll(ctx, list)
}

// Update replaces every field of an action owned by p.
func (s *ActionService) Update(ctx context.Context, id uint64, in ActionInput, p Principal) (*ActionDTO, error) {
	cur, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := AuthorizeOwner(cur.OwnerID, p); err != nil {
		return nil, err
	}
	a, err := in.toModel()
	if err != nil {
		return nil, err
	}
	a.ID, a.OwnerID = id, p.ID
	if err := s.actions.UpdateByIDAndOwner(ctx, a); err != nil {
		return nil, fmt.Errorf("update action: %w", translate(err))
	}
	out, err := s.present(ctx, a)
	if err != nil {
		return nil, err
	}
	emitAction(ctx, s.audit, queue.LabelActionUpdated, out)
	return out, nil
}

// Delete removes an action owned by p together with its join rows.
func (s *ActionService) Delete(ctx context.Context, id uint64, p Principal) error {
	cur, err := s.actions.GetByID(ctx, id)
	if err != nil {
		return translate(err)
	}
	if err := AuthorizeOwner(cur.OwnerID, p); err != nil {
		return err
	}
	snapshot, err := s.present(ctx, cur)
	if err != nil {
		return err
	}
	if err := s.actions.DeleteByIDAndOwner(ctx, id, p.ID); err != nil {
		return fmt.Errorf("delete action: %w", translate(err))
	}
	emitAction(ctx, s.audit, queue.LabelActionDeleted, snapshot)
	return nil
}

func (s *ActionService) present(ctx context.Context, a *model.Action) (*ActionDTO, error) {
	out, err := s.presentAll(ctx, []*model.Action{a})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// presentAll converts actions to transfer shapes, loading every referenced
// contact, user and project with one query per table.
func (s *ActionService) presentAll(ctx context.Context, list []*model.Action) ([]*ActionDTO, error) {
	out := make([]*ActionDTO, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	var contactIDs, userIDs, projectIDs []uint64
	for _, a := range list {
		contactIDs = append(contactIDs, a.MemberIDs...)
		userIDs = append(userIDs, a.OwnerID)
		userIDs = append(userIDs, a.AssignedUserIDs...)
		if a.ProjectID != nil {
			projectIDs = append(projectIDs, *a.ProjectID)
		}
	}

	contacts, err := s.contacts.ListByIDs(ctx, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	projects, err := s.projects.ListByIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	contactByID := make(map[uint64]*model.Contact, len(contacts))
	for _, c := range contacts {
		contactByID[c.ID] = c
	}
	userByID := make(map[uint64]*model.User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}
	projectByID := make(map[uint64]*model.Project, len(projects))
	for _, p := range projects {
		projectByID[p.ID] = p
	}

	for _, a := range list {
		d := &ActionDTO{
			ID:              a.ID,
			Title:           a.Title,
			Completed:       a.Completed,
			Notes:           a.Notes,
			Priority:        a.Priority,
			ProjectID:       a.ProjectID,
			MemberIDs:       nonNil(a.MemberIDs),
			Members:         []ContactSummary{},
			AssignedUserIDs: nonNil(a.AssignedUserIDs),
			AssignedUsers:   []UserSummary{},
			OwnerID:         a.OwnerID,
		}
		if a.DueDate != nil {
			due := a.DueDate.Format(repository.DateLayout)
			d.DueDate = &due
		}
		if a.ProjectID != nil {
			if p, ok := projectByID[*a.ProjectID]; ok {
				d.Project = &ProjectSummary{ID: p.ID, Title: p.Title}
			}
		}
		for _, id := range d.MemberIDs {
			if c, ok := contactByID[id]; ok {
				d.Members = append(d.Members, toContactDTO(c).ContactSummary)
			}
		}
		for _, id := range d.AssignedUserIDs {
			if u, ok := userByID[id]; ok {
				d.AssignedUsers = append(d.AssignedUsers, toUserSummary(u))
			}
		}
		if owner, ok := userByID[a.OwnerID]; ok {
			d.Username, d.Name, d.Surname, d.Gender = owner.Username, owner.Name, owner.Surname, owner.Gender
		}
		out = append(out, d)
	}
	return out, nil
}

func nonNil(ids []uint64) []uint64 {
	if ids == nil {
		return []uint64{}
	}
	return ids
}
