package loaders_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/api/loaders"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

type stubUsers struct {
	repositories.UserRepository
	calls atomic.Int32
	users map[int]*entities.User
}

func (s *stubUsers) GetByIDs(ctx context.Context, ids []int) ([]*entities.User, error) {
	s.calls.Add(1)
	var out []*entities.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestUsernames_BatchesLookups(t *testing.T) {
	users := &stubUsers{users: map[int]*entities.User{
		1: {ID: 1, Username: "admin"},
		7: {ID: 7, Username: "critic"},
	}}
	l := loaders.NewLoaders(users, nil)

	names := l.Usernames(context.Background(), []int{7, 1, 7, 404})

	assert.Equal(t, map[int]string{1: "admin", 7: "critic"}, names)
	assert.Equal(t, int32(1), users.calls.Load())
}

func TestUserLoader_MissingKey(t *testing.T) {
	l := loaders.NewLoaders(&stubUsers{users: map[int]*entities.User{}}, nil)

	_, err := l.UserLoader.Load(context.Background(), 9)()

	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))
}

func TestMiddleware_AttachesLoaders(t *testing.T) {
	var got *loaders.Loaders
	handler := loaders.Middleware(&stubUsers{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = loaders.For(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Nil(t, loaders.For(context.Background()))
}
