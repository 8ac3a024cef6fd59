package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/internal/domain/repositories"
	apperrors "github.com/spoileralert/backend/pkg/errors"
)

const replyDateLayout = "02 January 2006"

// SocialService handles replies, liked reviews and favorite movies
type SocialService struct {
	reviews   repositories.ReviewRepository
	movies    repositories.MovieRepository
	users     repositories.UserRepository
	replies   repositories.ReplyRepository
	likes     repositories.LikeRepository
	favorites repositories.FavoriteRepository
	metadata  providers.MetadataProvider
	now       func() time.Time
}

// NewSocialService creates a new social service. metadata is used for poster
// images and may be nil.
func NewSocialService(
	reviews repositories.ReviewRepository,
	movies repositories.MovieRepository,
	users repositories.UserRepository,
	replies repositories.ReplyRepository,
	likes repositories.LikeRepository,
	favorites repositories.FavoriteRepository,
	metadata providers.MetadataProvider,
) *SocialService {
	return &SocialService{
		reviews:   reviews,
		movies:    movies,
		users:     users,
		replies:   replies,
		likes:     likes,
		favorites: favorites,
		metadata:  metadata,
		now:       time.Now,
	}
}

func requireActor(actor *entities.CurrentUser) error {
	if actor == nil {
		return apperrors.NewUnauthorizedError("invalid authentication credentials")
	}
	return nil
}

// Replies lists the replies to a review
func (s *SocialService) Replies(ctx context.Context, reviewID int) ([]*entities.Reply, error) {
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return nil, err
	}
	return s.replies.ListByReview(ctx, reviewID)
}

// Reply posts a reply to a review
func (s *SocialService) Reply(ctx context.Context, actor *entities.CurrentUser, reviewID int, in *entities.ReplyCreate) (*entities.Reply, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.ReplyBody)
	if err := validateText("replyBody", body, maxReplyBody); err != nil {
		return nil, err
	}
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return nil, err
	}

	reply := &entities.Reply{
		ReviewID:   reviewID,
		UserID:     actor.ID,
		ReplyBody:  body,
		DatePosted: s.now().Format(replyDateLayout),
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Like records that actor likes a review
func (s *SocialService) Like(ctx context.Context, actor *entities.CurrentUser, reviewID int) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := s.reviews.GetByID(ctx, reviewID); err != nil {
		return err
	}
	return s.likes.Add(ctx, entities.LikedReview{UserID: actor.ID, ReviewID: reviewID})
}

// Unlike removes actor's like from a review
func (s *SocialService) Unlike(ctx context.Context, actor *entities.CurrentUser, reviewID int) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.likes.Remove(ctx, entities.LikedReview{UserID: actor.ID, ReviewID: reviewID})
}

// Likes returns actor's liked reviews joined with movie title, author and
// poster. Likes of deleted reviews are skipped.
func (s *SocialService) Likes(ctx context.Context, actor *entities.CurrentUser) ([]*entities.LikedReviewFull, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	likes, err := s.likes.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out := []*entities.LikedReviewFull{}
	if len(likes) == 0 {
		return out, nil
	}

	liked := make(map[int]struct{}, len(likes))
	for _, l := range likes {
		liked[l.ReviewID] = struct{}{}
	}
	all, err := s.reviews.List(ctx, repositories.ReviewFilter{})
	if err != nil {
		return nil, err
	}

	var reviews []*entities.Review
	var movieIDs, userIDs []int
	for _, r := range all {
		if _, ok := liked[r.ID]; ok {
			reviews = append(reviews, r)
			movieIDs = append(movieIDs, r.MovieID)
			userIDs = append(userIDs, r.UserID)
		}
	}

	movies, err := s.movies.GetByIDs(ctx, movieIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	moviesByID := make(map[int]*entities.Movie, len(movies))
	for _, m := range movies {
		moviesByID[m.ID] = m
	}
	namesByID := make(map[int]string, len(users))
	for _, u := range users {
		namesByID[u.ID] = u.Username
	}

	posters := make(map[int]string)
	for _, r := range reviews {
		full := &entities.LikedReviewFull{
			ID:          r.ID,
			MovieID:     r.MovieID,
			Username:    namesByID[r.UserID],
			ReviewTitle: r.ReviewTitle,
		}
		if m, ok := moviesByID[r.MovieID]; ok {
			full.MovieTitle = m.Title
			full.Poster = s.poster(ctx, m, posters)
		}
		out = append(out, full)
	}
	return out, nil
}

// poster looks up a poster once per movie; failures leave it blank
func (s *SocialService) poster(ctx context.Context, movie *entities.Movie, seen map[int]string) string {
	if s.metadata == nil {
		return ""
	}
	if p, ok := seen[movie.ID]; ok {
		return p
	}
	details, err := s.metadata.Details(ctx, movie.MetadataID())
	if err != nil {
		log.Debug().Err(err).Int("movie_id", movie.ID).Msg("poster lookup failed")
		seen[movie.ID] = ""
		return ""
	}
	seen[movie.ID] = details.Poster
	return details.Poster
}

// AddFavorite adds a movie to actor's favorites
func (s *SocialService) AddFavorite(ctx context.Context, actor *entities.CurrentUser, movieID int) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return err
	}
	return s.favorites.Add(ctx, entities.Favorite{UserID: actor.ID, MovieID: movieID})
}

// RemoveFavorite removes a movie from actor's favorites
func (s *SocialService) RemoveFavorite(ctx context.Context, actor *entities.CurrentUser, movieID int) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	return s.favorites.Remove(ctx, entities.Favorite{UserID: actor.ID, MovieID: movieID})
}

// Favorites returns actor's favorite movies
func (s *SocialService) Favorites(ctx context.Context, actor *entities.CurrentUser) ([]*entities.Movie, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	favs, err := s.favorites.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.MovieID)
	}
	movies, err := s.movies.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []*entities.Movie{}
	}
	return movies, nil
}
