package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/database"
	"github.com/spoileralert/backend/internal/adapters/events"
	"github.com/spoileralert/backend/internal/application/services"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	"github.com/spoileralert/backend/internal/infrastructure/clients/jsonstore"
	"github.com/spoileralert/backend/pkg/config"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

var (
	admin   = &entities.CurrentUser{ID: 1, Username: "admin", Role: entities.RoleAdmin}
	regular = &entities.CurrentUser{ID: 7, Username: "critic", Role: entities.RoleUser}
)

type fixture struct {
	dir     string
	store   *jsonstore.Gateway
	users   repositories.UserRepository
	reviews repositories.ReviewRepository
}

// newFixture writes the given records as collection files in a temp dir and
// opens adapters over them.
func newFixture(t *testing.T, collections map[string]any) *fixture {
	t.Helper()
	dir := t.TempDir()
	for _, name := range jsonstore.AllCollections {
		records, ok := collections[name]
		if !ok {
			records = []any{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644))
	}

	store := jsonstore.NewGateway(&config.StorageConfig{DataDir: dir, CacheEnabled: true})
	return &fixture{
		dir:     dir,
		store:   store,
		users:   database.NewUserAdapter(store),
		reviews: database.NewReviewAdapter(store),
	}
}

func (f *fixture) read(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, name+".json"))
	require.NoError(t, err)
	return data
}

func (f *fixture) user(t *testing.T, id int) *entities.User {
	t.Helper()
	users, err := jsonstore.Load[entities.User](context.Background(), f.store, jsonstore.Users)
	require.NoError(t, err)
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	t.Fatalf("user %d not found", id)
	return nil
}

func (f *fixture) review(t *testing.T, id int) *entities.Review {
	t.Helper()
	r, err := f.reviews.GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func moderationFixture(t *testing.T, penalties int) *fixture {
	return newFixture(t, map[string]any{
		jsonstore.Users: []map[string]any{
			{"id": 1, "username": "admin", "role": "admin", "penalties": 0, "isBanned": false},
			{"id": 7, "username": "critic", "role": "user", "penalties": penalties, "isBanned": false},
		},
		jsonstore.Reviews: []map[string]any{
			{"id": 42, "movieId": 3, "userId": 7, "reviewTitle": "Spoilers", "reviewBody": "He dies", "rating": 2, "datePosted": "2024-01-02", "flagged": false},
			{"id": 99, "movieId": 4, "userId": 7, "reviewTitle": "Again", "reviewBody": "Twist", "rating": 3, "datePosted": "2024-01-03", "flagged": false},
			{"id": 50, "movieId": 4, "userId": 1, "reviewTitle": "Old", "reviewBody": "Legacy", "rating": 5, "datePosted": "2023-05-01", "flagged": true},
		},
	})
}

func TestModerationService_FlagReview(t *testing.T) {
	ctx := context.Background()

	t.Run("first flag charges one penalty", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.FlagReview(ctx, 42, admin)

		require.NoError(t, err)
		assert.Equal(t, &entities.FlagResult{ReviewID: 42, AuthorID: 7, Penalties: 1, IsBanned: false, WasAlreadyFlagged: false}, result)
		assert.True(t, f.review(t, 42).Flagged)
		assert.NotEmpty(t, f.review(t, 42).FlaggedAt)
		assert.Equal(t, 1, f.user(t, 7).Penalties)
	})

	t.Run("third flag crosses the threshold", func(t *testing.T) {
		f := moderationFixture(t, 2)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.FlagReview(ctx, 99, admin)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Penalties)
		assert.True(t, result.IsBanned)
		assert.False(t, result.WasAlreadyFlagged)
		assert.True(t, f.user(t, 7).IsBanned)
	})

	t.Run("replayed flag is idempotent", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		_, err := service.FlagReview(ctx, 42, admin)
		require.NoError(t, err)
		usersAfterFirst := f.read(t, jsonstore.Users)
		reviewsAfterFirst := f.read(t, jsonstore.Reviews)

		result, err := service.FlagReview(ctx, 42, admin)

		require.NoError(t, err)
		assert.Equal(t, &entities.FlagResult{ReviewID: 42, AuthorID: 7, Penalties: 1, IsBanned: false, WasAlreadyFlagged: true}, result)
		assert.Equal(t, usersAfterFirst, f.read(t, jsonstore.Users))
		assert.Equal(t, reviewsAfterFirst, f.read(t, jsonstore.Reviews))
	})

	t.Run("review flagged before this service existed charges nothing", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)
		before := f.read(t, jsonstore.Users)

		result, err := service.FlagReview(ctx, 50, admin)

		require.NoError(t, err)
		assert.True(t, result.WasAlreadyFlagged)
		assert.Equal(t, 0, result.Penalties)
		assert.Equal(t, before, f.read(t, jsonstore.Users))
	})

	t.Run("non-admin is forbidden and nothing changes", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)
		users, reviews := f.read(t, jsonstore.Users), f.read(t, jsonstore.Reviews)

		result, err := service.FlagReview(ctx, 42, regular)

		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		assert.Equal(t, users, f.read(t, jsonstore.Users))
		assert.Equal(t, reviews, f.read(t, jsonstore.Reviews))
	})

	t.Run("nil actor is forbidden", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		_, err := service.FlagReview(ctx, 42, nil)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})

	t.Run("missing review", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)
		users := f.read(t, jsonstore.Users)

		_, err := service.FlagReview(ctx, 10000, admin)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeReviewNotFound))
		assert.Equal(t, users, f.read(t, jsonstore.Users))
	})

	t.Run("missing author is checked before any write", func(t *testing.T) {
		f := newFixture(t, map[string]any{
			jsonstore.Reviews: []map[string]any{
				{"id": 5, "movieId": 1, "userId": 404, "reviewTitle": "t", "reviewBody": "b", "rating": 5, "datePosted": "2024-01-01", "flagged": false},
			},
		})
		service := services.NewModerationService(f.reviews, f.users, nil, nil)
		reviews := f.read(t, jsonstore.Reviews)

		_, err := service.FlagReview(ctx, 5, admin)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))
		assert.Equal(t, reviews, f.read(t, jsonstore.Reviews))
	})

	t.Run("cancelled before the review write changes nothing", func(t *testing.T) {
		f := moderationFixture(t, 0)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)
		users, reviews := f.read(t, jsonstore.Users), f.read(t, jsonstore.Reviews)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := service.FlagReview(cancelled, 42, admin)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, users, f.read(t, jsonstore.Users))
		assert.Equal(t, reviews, f.read(t, jsonstore.Reviews))
	})

	t.Run("unknown keys survive a flag", func(t *testing.T) {
		f := newFixture(t, map[string]any{
			jsonstore.Users: []map[string]any{
				{"id": 7, "username": "critic", "role": "user", "penaltyCount": 1, "isBanned": false, "theme": "dark"},
			},
			jsonstore.Reviews: []map[string]any{
				{"id": 42, "movieId": 3, "userId": 7, "reviewTitle": "t", "reviewBody": "b", "rating": 2, "datePosted": "2024-01-02", "flagged": false, "source": "import"},
			},
		})
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.FlagReview(ctx, 42, admin)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Penalties)

		var users []map[string]any
		require.NoError(t, json.Unmarshal(f.read(t, jsonstore.Users), &users))
		assert.Equal(t, "dark", users[0]["theme"])
		var reviews []map[string]any
		require.NoError(t, json.Unmarshal(f.read(t, jsonstore.Reviews), &reviews))
		assert.Equal(t, "import", reviews[0]["source"])
	})
}

func TestModerationService_PenaltyLadder(t *testing.T) {
	ctx := context.Background()
	reviews := []map[string]any{}
	for id := 1; id <= 5; id++ {
		reviews = append(reviews, map[string]any{
			"id": id, "movieId": 1, "userId": 7, "reviewTitle": "t", "reviewBody": "b",
			"rating": 4, "datePosted": "2024-02-01", "flagged": false,
		})
	}
	f := newFixture(t, map[string]any{
		jsonstore.Users:   []map[string]any{{"id": 7, "username": "critic", "role": "user", "penalties": 0, "isBanned": false}},
		jsonstore.Reviews: reviews,
	})
	service := services.NewModerationService(f.reviews, f.users, nil, nil)

	expected := []struct {
		penalties int
		banned    bool
	}{{1, false}, {2, false}, {3, true}, {4, true}, {5, true}}

	previous := 0
	for i, want := range expected {
		result, err := service.FlagReview(ctx, i+1, admin)
		require.NoError(t, err)
		assert.Equal(t, want.penalties, result.Penalties, "flag %d", i+1)
		assert.Equal(t, want.banned, result.IsBanned, "flag %d", i+1)
		assert.GreaterOrEqual(t, result.Penalties, previous)
		if result.IsBanned {
			assert.GreaterOrEqual(t, result.Penalties, entities.PenaltyThreshold)
		}
		previous = result.Penalties
	}
}

func TestModerationService_ConcurrentFlagsLoseNoPenalty(t *testing.T) {
	ctx := context.Background()
	const n = 10
	reviews := []map[string]any{}
	for id := 1; id <= n; id++ {
		reviews = append(reviews, map[string]any{
			"id": id, "movieId": 1, "userId": 7, "reviewTitle": "t", "reviewBody": "b",
			"rating": 4, "datePosted": "2024-02-01", "flagged": false,
		})
	}
	f := newFixture(t, map[string]any{
		jsonstore.Users:   []map[string]any{{"id": 7, "username": "critic", "role": "user", "penalties": 0, "isBanned": false}},
		jsonstore.Reviews: reviews,
	})
	service := services.NewModerationService(f.reviews, f.users, nil, nil)

	var wg sync.WaitGroup
	for id := 1; id <= n; id++ {
		for replay := 0; replay < 2; replay++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				_, err := service.FlagReview(ctx, id, admin)
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	author := f.user(t, 7)
	assert.Equal(t, n, author.Penalties)
	assert.True(t, author.IsBanned)
}

type failingUserRepository struct {
	mock.Mock
	repositories.UserRepository
}

func (m *failingUserRepository) Update(ctx context.Context, id int, fn func(*entities.User) error) (*entities.User, error) {
	args := m.Called(ctx, id)
	return nil, args.Error(0)
}

func TestModerationService_PartialFailure(t *testing.T) {
	ctx := context.Background()
	f := moderationFixture(t, 0)

	failing := &failingUserRepository{UserRepository: f.users}
	failing.On("Update", mock.Anything, 7).Return(errors.New("disk full")).Once()

	service := services.NewModerationService(f.reviews, failing, nil, nil)
	_, err := service.FlagReview(ctx, 42, admin)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePartialFailure))
	assert.True(t, apperrors.HasCode(err, apperrors.CodePartialModerationFailure))
	assert.True(t, f.review(t, 42).Flagged, "review write precedes the user write")
	assert.Equal(t, 0, f.user(t, 7).Penalties)
	failing.AssertExpectations(t)

	t.Run("retry completes the penalty exactly once", func(t *testing.T) {
		retry := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := retry.FlagReview(ctx, 42, admin)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Penalties)
		assert.False(t, result.WasAlreadyFlagged)

		result, err = retry.FlagReview(ctx, 42, admin)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Penalties)
		assert.True(t, result.WasAlreadyFlagged)
	})
}

func TestModerationService_PublishesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := moderationFixture(t, 2)
	bus := events.NewMemoryEventBus()
	ch, err := bus.Subscribe(ctx, providers.EventChannelModeration)
	require.NoError(t, err)

	service := services.NewModerationService(f.reviews, f.users, bus, nil)
	_, err = service.FlagReview(ctx, 42, admin)
	require.NoError(t, err)

	var got []entities.ModerationEventType
	for len(got) < 2 {
		select {
		case event := <-ch:
			assert.Equal(t, 42, event.ReviewID)
			assert.Equal(t, 7, event.UserID)
			got = append(got, event.Type)
		case <-time.After(time.Second):
			t.Fatalf("expected two events, got %v", got)
		}
	}
	assert.Equal(t, []entities.ModerationEventType{entities.EventReviewFlagged, entities.EventUserBanned}, got)
}

type brokenEventBus struct {
	providers.EventBus
}

func (brokenEventBus) Publish(ctx context.Context, channel string, event *entities.ModerationEvent) error {
	return errors.New("redis down")
}

func TestModerationService_PublishFailureIsNotReturned(t *testing.T) {
	f := moderationFixture(t, 0)
	service := services.NewModerationService(f.reviews, f.users, brokenEventBus{}, nil)

	result, err := service.FlagReview(context.Background(), 42, admin)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Penalties)
}

func flaggedFixture(t *testing.T, n int) *fixture {
	reviews := []map[string]any{}
	for id := 1; id <= n; id++ {
		r := map[string]any{
			"id": id, "movieId": 1, "userId": 7, "reviewTitle": fmt.Sprintf("r%d", id), "reviewBody": "b",
			"rating": 4, "datePosted": fmt.Sprintf("2024-03-%02d", id), "flagged": true,
		}
		if id%3 == 0 {
			r["flagCount"] = id
		}
		reviews = append(reviews, r)
	}
	reviews = append(reviews, map[string]any{
		"id": 100, "movieId": 1, "userId": 7, "reviewTitle": "clean", "reviewBody": "b",
		"rating": 9, "datePosted": "2024-04-01", "flagged": false,
	})
	return newFixture(t, map[string]any{
		jsonstore.Users:   []map[string]any{{"id": 7, "username": "critic", "role": "user", "penalties": 3, "isBanned": true}},
		jsonstore.Reviews: reviews,
	})
}

func TestModerationService_GetFlaggedReviews(t *testing.T) {
	ctx := context.Background()

	t.Run("second page of twelve", func(t *testing.T) {
		f := flaggedFixture(t, 12)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.GetFlaggedReviews(ctx, admin, 2, 5, "")

		require.NoError(t, err)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 5, result.PageSize)
		assert.Equal(t, 12, result.TotalFlagged)
		assert.Equal(t, 3, result.PageCount)
		assert.Len(t, result.Reviews, 5)
	})

	t.Run("newest first", func(t *testing.T) {
		f := flaggedFixture(t, 4)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.GetFlaggedReviews(ctx, admin, 1, 10, "newest")

		require.NoError(t, err)
		assert.Equal(t, []int{4, 3, 2, 1}, reviewIDs(result))
	})

	t.Run("most flagged first, absent count is one", func(t *testing.T) {
		f := flaggedFixture(t, 7)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.GetFlaggedReviews(ctx, admin, 1, 10, "mostFlagged")

		require.NoError(t, err)
		assert.Equal(t, []int{6, 3, 7, 5, 4, 2, 1}, reviewIDs(result))
	})

	t.Run("pages are disjoint and cover the set", func(t *testing.T) {
		f := flaggedFixture(t, 23)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		for _, pageSize := range []int{1, 4, 5, 23, 50} {
			seen := map[int]int{}
			first, err := service.GetFlaggedReviews(ctx, admin, 1, pageSize, "mostFlagged")
			require.NoError(t, err)
			for page := 1; page <= first.PageCount; page++ {
				result, err := service.GetFlaggedReviews(ctx, admin, page, pageSize, "mostFlagged")
				require.NoError(t, err)
				for _, id := range reviewIDs(result) {
					seen[id]++
				}
			}
			assert.Len(t, seen, 23, "pageSize %d", pageSize)
			for id, count := range seen {
				assert.Equal(t, 1, count, "review %d with pageSize %d", id, pageSize)
			}
		}
	})

	t.Run("parameters are clamped", func(t *testing.T) {
		f := flaggedFixture(t, 3)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.GetFlaggedReviews(ctx, admin, -4, 1000, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, entities.MaxFlaggedPageSize, result.PageSize)
		assert.Equal(t, 1, result.PageCount)

		result, err = service.GetFlaggedReviews(ctx, admin, 1, 0, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.PageSize)
		assert.Equal(t, 3, result.PageCount)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		f := flaggedFixture(t, 3)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.GetFlaggedReviews(ctx, admin, 9, 5, "")

		require.NoError(t, err)
		assert.NotNil(t, result.Reviews)
		assert.Empty(t, result.Reviews)
		assert.Equal(t, 3, result.TotalFlagged)
	})

	t.Run("no flagged reviews", func(t *testing.T) {
		f := moderationFixture(t, 0)
		require.NoError(t, jsonstore.Save(ctx, f.store, jsonstore.Reviews, []entities.Review{}))
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		result, err := service.GetFlaggedReviews(ctx, admin, 1, 20, "")

		require.NoError(t, err)
		assert.Equal(t, 0, result.TotalFlagged)
		assert.Equal(t, 0, result.PageCount)
	})

	t.Run("unknown sort", func(t *testing.T) {
		f := flaggedFixture(t, 1)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		_, err := service.GetFlaggedReviews(ctx, admin, 1, 5, "oldest")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		f := flaggedFixture(t, 1)
		service := services.NewModerationService(f.reviews, f.users, nil, nil)

		_, err := service.GetFlaggedReviews(ctx, regular, 1, 5, "")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})
}

func reviewIDs(page *entities.PagedFlagged) []int {
	ids := make([]int, 0, len(page.Reviews))
	for _, r := range page.Reviews {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestModerationService_DeletedAuthorIDIsNotReassigned(t *testing.T) {
	ctx := context.Background()
	f := moderationFixture(t, 0)
	service := services.NewModerationService(f.reviews, f.users, nil, nil)

	require.NoError(t, f.users.Delete(ctx, 7))

	seen := map[int]bool{1: true, 7: true}
	for i := 0; i < 6; i++ {
		user := &entities.User{Username: fmt.Sprintf("newcomer%d", i), Role: entities.RoleUser}
		require.NoError(t, f.users.Create(ctx, user))
		assert.False(t, seen[user.ID], "id %d handed out twice", user.ID)
		seen[user.ID] = true
	}

	// Review 42 still names the deleted author, so nobody else is charged.
	_, err := service.FlagReview(ctx, 42, admin)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUserNotFound))
	assert.False(t, f.review(t, 42).Flagged)
	for id := range seen {
		if id != 1 && id != 7 {
			assert.Zero(t, f.user(t, id).Penalties)
		}
	}
}

func TestModerationService_RepostedReviewIsCharged(t *testing.T) {
	ctx := context.Background()
	f := moderationFixture(t, 0)
	service := services.NewModerationService(f.reviews, f.users, nil, nil)

	first, err := service.FlagReview(ctx, 99, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Penalties)

	require.NoError(t, f.reviews.Delete(ctx, 99))
	repost := &entities.Review{MovieID: 4, UserID: 7, ReviewTitle: "Again", ReviewBody: "Twist", Rating: 3, DatePosted: "2024-01-04"}
	require.NoError(t, f.reviews.Create(ctx, repost))
	assert.NotEqual(t, 99, repost.ID)

	second, err := service.FlagReview(ctx, repost.ID, admin)
	require.NoError(t, err)
	assert.False(t, second.WasAlreadyFlagged)
	assert.Equal(t, 2, second.Penalties)
	assert.Equal(t, 2, f.user(t, 7).Penalties)
}
