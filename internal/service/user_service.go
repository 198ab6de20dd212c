package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/planit/internal/model"
	"github.com/iliyamo/planit/internal/queue"
	"github.com/iliyamo/planit/internal/repository"
	"github.com/iliyamo/planit/internal/utils"
)

// AuthConfig carries the token and hashing parameters.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"max=100"`
	Surname  string `json:"surname" validate:"max=100"`
	Gender   string `json:"gender" validate:"max=20"`
}

// ProfileInput is the body of a profile update.
type ProfileInput struct {
	Name    string `json:"name" validate:"max=100"`
	Surname string `json:"surname" validate:"max=100"`
	Gender  string `json:"gender" validate:"max=20"`
}

// Token is a credential handed to the client together with its expiry.
type Token struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Session is the result of register, login and refresh.  Refresh is nil
// when the refresh token was not rotated.
type Session struct {
	User    *UserDTO `json:"user"`
	Access  Token    `json:"access"`
	Refresh *Token   `json:"refresh,omitempty"`
}

// UserService covers registration, token issuance, profiles and the user
// deletion cascade.
type UserService struct {
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	cfg    AuthConfig
	audit  Auditor
	logger *slog.Logger
}

func NewUserService(users *repository.UserRepo, tokens *repository.TokenRepo, cfg AuthConfig, audit Auditor, logger *slog.Logger) *UserService {
	if audit == nil {
		audit = NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, tokens: tokens, cfg: cfg, audit: audit, logger: logger}
}

// Register creates a USER account and opens a session for it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := repository.NormalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return nil, invalidf("username and password are required")
	}
	u := &model.User{
		Username: username,
		Role:     model.RoleUser,
		Name:     strings.TrimSpace(in.Name),
		Surname:  strings.TrimSpace(in.Surname),
		Gender:   strings.TrimSpace(in.Gender),
	}
	if err := s.users.Create(ctx, u, in.Password, s.cfg.BcryptCost); err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, invalidf("password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	u.CreatedAt = time.Now().UTC()
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID, "username", u.Username)
	return s.openSession(ctx, u)
}

// Login verifies the password and opens a session.  Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.VerifyPassword("", password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	sess, err := s.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	s.audit.Publish(ctx, queue.NewLoginEvent(utils.RequestID(ctx), u.Username,
		queue.UserSnapshot{Name: u.Name, Surname: u.Surname, Role: u.Role}))
	return sess, nil
}

// Refresh spends a refresh token and opens a new session.
func (s *UserService) Refresh(ctx context.Context, raw string) (*Session, error) {
	u, err := s.userForRefresh(ctx, raw, s.tokens.Consume)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, u)
}

// RefreshAccess issues a new access token and keeps the refresh token.
func (s *UserService) RefreshAccess(ctx context.Context, raw string) (*Session, error) {
	u, err := s.userForRefresh(ctx, raw, s.tokens.Lookup)
	if err != nil {
		return nil, err
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.Username, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	return &Session{User: toUserDTO(u), Access: Token{Token: access.Token, Expires: access.Exp}}, nil
}

// Logout revokes one refresh token when raw is set, otherwise every token
// of the principal.  At least one of the two must be present.
func (s *UserService) Logout(ctx context.Context, raw string, p *Principal) error {
	raw = strings.TrimSpace(raw)
	switch {
	case raw != "":
		if _, err := s.tokens.Consume(ctx, utils.HashRefreshRaw(raw)); err != nil {
			if errors.Is(err, repository.ErrTokenInvalid) {
				return ErrInvalidCredentials
			}
			return err
		}
		return nil
	case p != nil:
		return s.tokens.RevokeAllForUser(ctx, p.ID)
	default:
		return invalidf("provide Authorization header or refresh_token")
	}
}

// userForRefresh resolves raw through use, which either peeks at or spends
// the token.
func (s *UserService) userForRefresh(ctx context.Context, raw string, use func(context.Context, string) (uint64, error)) (*model.User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalidf("refresh_token required")
	}
	userID, err := use(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) openSession(ctx context.Context, u *model.User) (*Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.Username, u.ID, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return nil, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("save refresh: %w", err)
	}
	return &Session{
		User:    toUserDTO(u),
		Access:  Token{Token: access.Token, Expires: access.Exp},
		Refresh: &Token{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Me returns the principal's own profile.
func (s *UserService) Me(ctx context.Context, p Principal) (*UserDTO, error) {
	u, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, translate(err)
	}
	return toUserDTO(u), nil
}

// ListUsers returns the user directory used to pick assignees.
func (s *UserService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, 0, len(list))
	for _, u := range list {
		out = append(out, toUserSummary(u))
	}
	return out, nil
}

// GetUser returns the public summary of one user.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*UserSummary, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	sum := toUserSummary(u)
	return &sum, nil
}

// UpdateProfile changes name, surname and gender.  Users edit themselves;
// an ADMIN may edit anyone.
func (s *UserService) UpdateProfile(ctx context.Context, id uint64, in ProfileInput, p Principal) (*UserDTO, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if err := authorizeSelfOrAdmin(id, p); err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Surname = strings.TrimSpace(in.Surname)
	u.Gender = strings.TrimSpace(in.Gender)
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", translate(err))
	}
	return toUserDTO(u), nil
}

// Delete removes a user and everything they own in one transaction.  Users
// delete themselves; an ADMIN may delete anyone.  A failed cascade leaves
// the store untouched and returns ErrDeletionFailed wrapping the cause.
func (s *UserService) Delete(ctx context.Context, id uint64, p Principal) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return translate(err)
	}
	if err := authorizeSelfOrAdmin(id, p); err != nil {
		return err
	}
	if err := s.users.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		s.logger.ErrorContext(ctx, "user deletion rolled back", "user_id", id, "error", err)
		return fmt.Errorf("%w: %w", ErrDeletionFailed, err)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", id, "by", p.Username)
	return nil
}

// BootstrapAdmin promotes the named user to ADMIN.  A missing user is not
// an error; the promotion applies on a later start once they registered.
func (s *UserService) BootstrapAdmin(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return nil
	}
	err := s.users.SetRole(ctx, username, model.RoleAdmin)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "bootstrap admin not registered yet", "username", username)
		return nil
	}
	return err
}

func authorizeSelfOrAdmin(id uint64, p Principal) error {
	if id == p.ID || p.IsAdmin() {
		return nil
	}
	return ErrAccessDenied
}
