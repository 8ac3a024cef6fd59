package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
	tsclient "github.com/spoileralert/backend/internal/infrastructure/clients/typesense"
)

// TypesenseAdapter implements movie search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.MovieSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// Index adds or replaces a movie document
func (a *TypesenseAdapter) Index(ctx context.Context, movie *entities.Movie) error {
	_, err := a.client.Client().Collection(tsclient.MoviesCollection).Documents().Upsert(ctx, movieDocument(movie))
	if err != nil {
		return fmt.Errorf("failed to index movie %d: %w", movie.ID, err)
	}
	return nil
}

// Delete removes a movie from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id int) error {
	_, err := a.client.Client().Collection(tsclient.MoviesCollection).Document(strconv.Itoa(id)).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete movie %d from index: %w", id, err)
	}
	return nil
}

// Search returns movie ids ranked by Typesense relevance
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]int, error) {
	if limit <= 0 {
		limit = 20
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("title,directors,main_stars,genres"),
		Page:    pointer.Int(1),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.MoviesCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}

	ids := []int{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		raw, _ := (*hit.Document)["id"].(string)
		if id, err := strconv.Atoi(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func movieDocument(movie *entities.Movie) map[string]interface{} {
	doc := map[string]interface{}{
		"id":          strconv.Itoa(movie.ID),
		"title":       movie.Title,
		"genres":      normalizeTerms(movie.Genres),
		"directors":   movie.Directors,
		"main_stars":  movie.MainStars,
		"imdb_rating": movie.IMDbRating,
	}
	if movie.Description != "" {
		doc["description"] = movie.Description
	}
	if movie.YearReleased != nil {
		doc["year_released"] = *movie.YearReleased
	}
	return doc
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
