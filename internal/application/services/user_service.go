package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// UserService manages accounts
type UserService struct {
	repo   repositories.UserRepository
	hasher providers.PasswordHasher
}

// NewUserService creates a new user service
func NewUserService(repo repositories.UserRepository, hasher providers.PasswordHasher) *UserService {
	return &UserService{repo: repo, hasher: hasher}
}

// Register validates and stores a new account with the user role
func (s *UserService) Register(ctx context.Context, in *entities.UserCreate) (*entities.UserProfile, error) {
	user := &entities.User{
		Username:  strings.TrimSpace(in.Username),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Age:       in.Age,
		Email:     strings.TrimSpace(in.Email),
		Role:      entities.RoleUser,
	}
	password := strings.TrimSpace(in.Password)

	for _, err := range []error{
		validateUsername(user.Username),
		validateName("firstName", user.FirstName),
		validateName("lastName", user.LastName),
		validateAge(user.Age),
		validateEmail(user.Email),
		validatePassword(password),
	} {
		if err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}
	user.Password = hash

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user.Profile(), nil
}

// List returns every account
func (s *UserService) List(ctx context.Context) ([]*entities.UserProfile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, id int) (*entities.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// Update edits profile fields. Users may edit themselves; admins anyone.
func (s *UserService) Update(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.UserUpdate) (*entities.UserProfile, error) {
	if actor == nil || (actor.ID != id && !actor.IsAdmin()) {
		return nil, apperrors.NewForbiddenError("cannot edit another user's profile")
	}

	var hash string
	if in.Password != nil {
		password := strings.TrimSpace(*in.Password)
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		h, err := s.hasher.Hash(password)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to hash password", err)
		}
		hash = h
	}

	updated, err := s.repo.Update(ctx, id, func(u *entities.User) error {
		if in.Username != nil {
			u.Username = strings.TrimSpace(*in.Username)
			if err := validateUsername(u.Username); err != nil {
				return err
			}
		}
		if in.FirstName != nil {
			u.FirstName = strings.TrimSpace(*in.FirstName)
			if err := validateName("firstName", u.FirstName); err != nil {
				return err
			}
		}
		if in.LastName != nil {
			u.LastName = strings.TrimSpace(*in.LastName)
			if err := validateName("lastName", u.LastName); err != nil {
				return err
			}
		}
		if in.Age != nil {
			if err := validateAge(in.Age); err != nil {
				return err
			}
			u.Age = in.Age
		}
		if in.Email != nil {
			u.Email = strings.TrimSpace(*in.Email)
			if err := validateEmail(u.Email); err != nil {
				return err
			}
		}
		if hash != "" {
			u.Password = hash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Profile(), nil
}

// Delete removes an account. Admin only.
func (s *UserService) Delete(ctx context.Context, actor *entities.CurrentUser, id int) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbiddenError("admin privileges required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Int("user_id", id).Int("actor_id", actor.ID).Msg("user deleted")
	return nil
}

// AdminUpdate sets role or ban state. A ban cannot be lifted.
func (s *UserService) AdminUpdate(ctx context.Context, actor *entities.CurrentUser, id int, in *entities.AdminUserUpdate) (*entities.UserProfile, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin privileges required")
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be one of: user, admin")
	}

	updated, err := s.repo.Update(ctx, id, func(u *entities.User) error {
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.IsBanned != nil {
			u.IsBanned = *in.IsBanned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Profile(), nil
}

// GrantAdmin gives another user the admin role
func (s *UserService) GrantAdmin(ctx context.Context, actor *entities.CurrentUser, id int) (*entities.UserProfile, error) {
	return s.setRole(ctx, actor, id, entities.RoleAdmin, "you are already an admin")
}

// RevokeAdmin returns another admin to the user role
func (s *UserService) RevokeAdmin(ctx context.Context, actor *entities.CurrentUser, id int) (*entities.UserProfile, error) {
	return s.setRole(ctx, actor, id, entities.RoleUser, "cannot revoke your own admin privileges")
}

func (s *UserService) setRole(ctx context.Context, actor *entities.CurrentUser, id int, role entities.Role, selfMessage string) (*entities.UserProfile, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("admin privileges required")
	}
	if actor.ID == id {
		return nil, apperrors.NewValidationError(selfMessage)
	}

	updated, err := s.repo.Update(ctx, id, func(u *entities.User) error {
		if u.Role == role {
			return repositories.ErrNoChange
		}
		u.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("user_id", id).Int("actor_id", actor.ID).Str("role", string(role)).Msg("role changed")
	return updated.Profile(), nil
}
