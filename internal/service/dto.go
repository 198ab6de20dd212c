package service

import (
	"strings"
	"time"

	"github.com/iliyamo/planit/internal/model"
	"github.com/iliyamo/planit/internal/repository"
)

// UserSummary is the public face of a user: directory entries, action
// owners and assignees.
type UserSummary struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Gender   string `json:"gender"`
}

// UserDTO adds the fields a user may see about themselves.
type UserDTO struct {
	UserSummary
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactSummary struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type ContactDTO struct {
	ContactSummary
	OwnerID uint64 `json:"owner_id"`
}

// ContactInput is the create/update body of a contact.
type ContactInput struct {
	Name    string `json:"name" validate:"max=100"`
	Surname string `json:"surname" validate:"required,max=100"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Phone   string `json:"phone" validate:"max=50"`
}

type ProjectSummary struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

type ProjectDTO struct {
	ProjectSummary
	OwnerID     uint64 `json:"owner_id"`
	Description string `json:"description"`
}

// ProjectInput is the create/update body of a project.
type ProjectInput struct {
	Title       string `json:"title" validate:"max=255"`
	Description string `json:"description"`
}

// ActionInput is the create/update body of an action.  Update replaces
// every field: a nil ProjectID unlinks the project and empty id lists
// clear the member and assignee sets.
type ActionInput struct {
	Title           string   `json:"title" validate:"required,max=255"`
	Completed       bool     `json:"completed"`
	DueDate         *string  `json:"due_date"`
	Notes           string   `json:"notes"`
	Priority        *int     `json:"priority"`
	ProjectID       *uint64  `json:"project_id"`
	MemberIDs       []uint64 `json:"member_ids"`
	AssignedUserIDs []uint64 `json:"assigned_user_ids"`
}

// ActionDTO is the read shape of an action, with nested summaries and the
// owner's display fields.
type ActionDTO struct {
	ID              uint64           `json:"id"`
	Title           string           `json:"title"`
	Completed       bool             `json:"completed"`
	DueDate         *string          `json:"due_date"`
	Notes           string           `json:"notes"`
	Priority        *int             `json:"priority"`
	ProjectID       *uint64          `json:"project_id"`
	Project         *ProjectSummary  `json:"project"`
	MemberIDs       []uint64         `json:"member_ids"`
	Members         []ContactSummary `json:"members"`
	AssignedUserIDs []uint64         `json:"assigned_user_ids"`
	AssignedUsers   []UserSummary    `json:"assigned_users"`
	OwnerID         uint64           `json:"owner_id"`
	Username        string           `json:"username"`
	Name            string           `json:"name"`
	Surname         string           `json:"surname"`
	Gender          string           `json:"gender"`
}

func toUserSummary(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name, Surname: u.Surname, Gender: u.Gender}
}

func toUserDTO(u *model.User) *UserDTO {
	return &UserDTO{UserSummary: toUserSummary(u), Role: u.Role, CreatedAt: u.CreatedAt}
}

func toContactDTO(c *model.Contact) *ContactDTO {
	return &ContactDTO{
		ContactSummary: ContactSummary{ID: c.ID, Name: c.Name, Surname: c.Surname, Email: c.Email, Phone: c.Phone},
		OwnerID:        c.OwnerID,
	}
}

func toProjectDTO(p *model.Project) *ProjectDTO {
	return &ProjectDTO{
		ProjectSummary: ProjectSummary{ID: p.ID, Title: p.Title},
		OwnerID:        p.OwnerID,
		Description:    p.Description,
	}
}

// toModel validates in and converts it to an unsaved action.
func (in ActionInput) toModel() (*model.Action, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidf("title is required")
	}
	a := &model.Action{
		Title:           title,
		Completed:       in.Completed,
		Notes:           in.Notes,
		Priority:        in.Priority,
		ProjectID:       in.ProjectID,
		MemberIDs:       in.MemberIDs,
		AssignedUserIDs: in.AssignedUserIDs,
	}
	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		d, err := time.Parse(repository.DateLayout, strings.TrimSpace(*in.DueDate))
		if err != nil {
			return nil, invalidf("due_date must be YYYY-MM-DD")
		}
		a.DueDate = &d
	}
	return a, nil
}

func (in ContactInput) toModel() (*model.Contact, error) {
	surname := strings.TrimSpace(in.Surname)
	if surname == "" {
		return nil, invalidf("surname is required")
	}
	return &model.Contact{
		Name:    strings.TrimSpace(in.Name),
		Surname: surname,
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
	}, nil
}

func (in ProjectInput) toModel() *model.Project {
	return &model.Project{Title: strings.TrimSpace(in.Title), Description: in.Description}
}
