package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/oncall-service/internal/auth"
	"github.com/spec-kit/oncall-service/internal/config"
	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// AuthService coordinates login and roster account maintenance.
type AuthService struct {
	people     repository.PersonRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, people repository.PersonRepository) *AuthService {
	return &AuthService{
		people:     people,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Login authenticates a person by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Person, string, domain.Token, error) {
	person, err := s.people.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", domain.Token{}, apperrors.MapError(err)
	}
	if !person.Active {
		return nil, "", domain.Token{}, apperrors.NewUnauthorized("person inactive")
	}
	if err := auth.ComparePassword(person.PasswordHash, password); err != nil {
		return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	raw, meta, err := s.tokenMgr.GenerateToken(person.ID, person.Role)
	if err != nil {
		return nil, "", domain.Token{}, apperrors.NewInternalError(err)
	}
	return person, raw, meta, nil
}

// Register adds a person to the roster (admin only).
func (s *AuthService) Register(ctx context.Context, actor *domain.Person, person *domain.Person, password string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("only admins can add people")
	}
	if _, err := s.people.GetByUsername(ctx, person.Username); err == nil {
		return apperrors.NewConflict("username already registered", map[string]any{"username": person.Username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	person.PasswordHash = hash
	if person.Role == "" {
		person.Role = domain.PersonRoleMember
	}
	person.Active = true
	if err := s.people.Create(ctx, person); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Person, currentPassword, newPassword string) error {
	person, err := s.people.GetByID(ctx, actor.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(person.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	person.PasswordHash = hash
	if err := s.people.Update(ctx, person); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// PersonUpdate carries the optional fields an admin may change. Nil means keep.
type PersonUpdate struct {
	Name   *string
	Email  *string
	Role   *domain.PersonRole
	Active *bool
}

// UpdatePerson applies an admin edit to a roster member.
func (s *AuthService) UpdatePerson(ctx context.Context, actor *domain.Person, id string, update PersonUpdate) (*domain.Person, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("only admins can edit people")
	}
	if actor.ID == id && ((update.Active != nil && !*update.Active) || (update.Role != nil && *update.Role != domain.PersonRoleAdmin)) {
		return nil, apperrors.NewValidationError("admins cannot demote or deactivate themselves", map[string]any{"person_id": id})
	}
	person, err := s.people.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if update.Name != nil {
		person.Name = *update.Name
	}
	if update.Email != nil {
		person.Email = *update.Email
	}
	if update.Role != nil {
		person.Role = *update.Role
	}
	if update.Active != nil {
		person.Active = *update.Active
	}
	if err := s.people.Update(ctx, person); err != nil {
		return nil, apperrors.MapError(err)
	}
	return person, nil
}

// Deactivate removes a person from future allocation runs. Their shifts and
// statistics are kept.
func (s *AuthService) Deactivate(ctx context.Context, actor *domain.Person, id string) error {
	inactive := false
	_, err := s.UpdatePerson(ctx, actor, id, PersonUpdate{Active: &inactive})
	return err
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Roster lists active people.
func (s *AuthService) Roster(ctx context.Context) ([]domain.Person, error) {
	people, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return people, nil
}

// EnsureAdmin creates the bootstrap admin when the username is free.
// It reports whether a person was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	if _, err := s.people.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	admin := &domain.Person{
		Username:     username,
		Name:         username,
		PasswordHash: hash,
		Role:         domain.PersonRoleAdmin,
		Active:       true,
	}
	if err := s.people.Create(ctx, admin); err != nil {
		return false, err
	}
	return true, nil
}
