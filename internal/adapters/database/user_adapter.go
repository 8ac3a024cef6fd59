package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

// UserAdapter implements UserRepository over the users collection
type UserAdapter struct {
	store *jsonstore.Gateway
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(store *jsonstore.Gateway) repositories.UserRepository {
	return &UserAdapter{store: store}
}

func (a *UserAdapter) load(ctx context.Context) ([]entities.User, error) {
	return jsonstore.Load[entities.User](ctx, a.store, jsonstore.Users)
}

// Create assigns the next id and stores a new user
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	return jsonstore.Update(ctx, a.store, jsonstore.Users, func(users []entities.User) ([]entities.User, bool, error) {
		if indexOf(users, func(u *entities.User) bool { return entities.SameUsername(u.Username, user.Username) }) >= 0 {
			return nil, false, apperrors.NewConflictError(fmt.Sprintf("username %q is already taken", user.Username))
		}
		if user.Role == "" {
			user.Role = entities.RoleUser
		}
		id, err := assignID(ctx, a.store, jsonstore.Users, users, func(u *entities.User) int { return u.ID })
		if err != nil {
			return nil, false, err
		}
		user.ID = id
		return append(users, *user), true, nil
	})
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id int) (*entities.User, error) {
	users, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(users, func(u *entities.User) bool { return u.ID == id }); idx >= 0 {
		return &users[idx], nil
	}
	return nil, apperrors.NewUserNotFoundError(id)
}

// GetByUsername retrieves a user by username, ignoring case
func (a *UserAdapter) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	users, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(users, func(u *entities.User) bool { return entities.SameUsername(u.Username, username) }); idx >= 0 {
		return &users[idx], nil
	}
	return nil, apperrors.NewCodedNotFoundError(apperrors.CodeUserNotFound, fmt.Sprintf("user %q not found", username))
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	users, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(users, func(u *entities.User) bool { return strings.EqualFold(u.Email, email) }); idx >= 0 {
		return &users[idx], nil
	}
	return nil, apperrors.NewCodedNotFoundError(apperrors.CodeUserNotFound, "no user with that email")
}

// GetByIDs retrieves the users that exist among ids
func (a *UserAdapter) GetByIDs(ctx context.Context, ids []int) ([]*entities.User, error) {
	users, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var out []*entities.User
	for i := range users {
		if _, ok := wanted[users[i].ID]; ok {
			out = append(out, &users[i])
		}
	}
	return out, nil
}

// List returns every user
func (a *UserAdapter) List(ctx context.Context) ([]*entities.User, error) {
	users, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.User, len(users))
	for i := range users {
		out[i] = &users[i]
	}
	return out, nil
}

// Update applies fn to a freshly read user and saves the result
func (a *UserAdapter) Update(ctx context.Context, id int, fn func(*entities.User) error) (*entities.User, error) {
	return updateOne(ctx, a.store, jsonstore.Users,
		func(u *entities.User) bool { return u.ID == id },
		func() error { return apperrors.NewUserNotFoundError(id) },
		fn,
		func(users []entities.User, idx int, updated *entities.User) error {
			if updated.ID != id {
				return apperrors.NewValidationError("user id cannot change")
			}
			for i := range users {
				if i != idx && entities.SameUsername(users[i].Username, updated.Username) {
					return apperrors.NewConflictError(fmt.Sprintf("username %q is already taken", updated.Username))
				}
			}
			if users[idx].IsBanned && !updated.IsBanned {
				return apperrors.NewConflictError("a ban cannot be lifted")
			}
			if updated.Penalties < users[idx].Penalties {
				return apperrors.NewConflictError("penalties cannot decrease")
			}
			return nil
		},
	)
}

// Delete deletes a user
func (a *UserAdapter) Delete(ctx context.Context, id int) error {
	return deleteOne(ctx, a.store, jsonstore.Users,
		func(u *entities.User) bool { return u.ID == id },
		func() error { return apperrors.NewUserNotFoundError(id) },
	)
}
