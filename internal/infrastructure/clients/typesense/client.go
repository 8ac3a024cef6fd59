package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/spoileralert/backend/pkg/config"
	"github.com/spoileralert/backend/pkg/retry"
)

const (
	MoviesCollection = "movies"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxTotalTimeout = 30 * time.Second
	err := retry.DoWithLog(ctx, retryConfig, "Typesense",
		func() error {
			healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_, err := client.Health(healthCtx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// MoviesSchema is the collection schema for the movie search index
func MoviesSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: MoviesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "genres", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "directors", Type: "string[]", Optional: pointer.True()},
			{Name: "main_stars", Type: "string[]", Optional: pointer.True()},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "year_released", Type: "int32", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "imdb_rating", Type: "float"},
		},
		DefaultSortingField: pointer.String("imdb_rating"),
	}
}

// InitSchema ensures the movies collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == MoviesCollection {
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, MoviesSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", MoviesCollection).Msg("created Typesense collection")
	return nil
}
