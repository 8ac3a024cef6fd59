package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/pkg/config"
	"github.com/spoileralert/backend/pkg/retry"
)

const (
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL = "https://image.tmdb.org/t/p/w500"
	detailsCacheTTL         = 60 * 60 * 24
	recommendationsCacheTTL = 60 * 60 * 6
	defaultHTTPTimeout      = 8 * time.Second
	maxRecommendations      = 10
)

// TMDBProvider implements MetadataProvider against The Movie Database API
type TMDBProvider struct {
	apiKey       string
	httpClient   *http.Client
	cache        providers.CacheProvider
	baseURL      string
	imageBaseURL string
	retryConfig  retry.Config
}

// NewTMDBProvider creates a TMDB provider from configuration
func NewTMDBProvider(cfg *config.TMDBConfig, cache providers.CacheProvider) providers.MetadataProvider {
	return NewTMDBProviderWithOptions(cfg.APIKey, cache, cfg.BaseURL, cfg.ImageBaseURL, nil, retry.UpstreamConfig())
}

// NewTMDBProviderWithOptions allows overriding URLs, HTTP client and retry policy (used for tests)
func NewTMDBProviderWithOptions(apiKey string, cache providers.CacheProvider, baseURL, imageBaseURL string, httpClient *http.Client, retryConfig retry.Config) *TMDBProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(imageBaseURL) == "" {
		imageBaseURL = defaultTMDBImageBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &TMDBProvider{
		apiKey:       apiKey,
		httpClient:   httpClient,
		cache:        cache,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
		retryConfig:  retryConfig,
	}
}

type tmdbMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	ReleaseDate string  `json:"release_date"`
}

type tmdbPage struct {
	Results []tmdbMovie `json:"results"`
}

// Details returns poster, overview and rating for a TMDB movie id
func (p *TMDBProvider) Details(ctx context.Context, externalID int) (*entities.MovieDetails, error) {
	cacheKey := "tmdb:v1:details:" + hashKey(fmt.Sprint(externalID))
	var details entities.MovieDetails
	if p.fromCache(ctx, cacheKey, &details) {
		return &details, nil
	}

	var movie tmdbMovie
	if err := p.get(ctx, fmt.Sprintf("/movie/%d", externalID), &movie); err != nil {
		return nil, err
	}

	details = entities.MovieDetails{
		MovieID:  externalID,
		Poster:   p.posterURL(movie.PosterPath),
		Overview: movie.Overview,
		Rating:   movie.VoteAverage,
	}
	p.toCache(ctx, cacheKey, details, detailsCacheTTL)
	return &details, nil
}

// Recommendations returns up to ten titles related to a TMDB movie id
func (p *TMDBProvider) Recommendations(ctx context.Context, externalID int) ([]entities.Recommendation, error) {
	cacheKey := "tmdb:v1:recommendations:" + hashKey(fmt.Sprint(externalID))
	var recs []entities.Recommendation
	if p.fromCache(ctx, cacheKey, &recs) {
		return recs, nil
	}

	var page tmdbPage
	if err := p.get(ctx, fmt.Sprintf("/movie/%d/recommendations", externalID), &page); err != nil {
		return nil, err
	}

	recs = make([]entities.Recommendation, 0, len(page.Results))
	for _, m := range page.Results {
		if len(recs) == maxRecommendations {
			break
		}
		recs = append(recs, entities.Recommendation{
			ID:          m.ID,
			Title:       m.Title,
			Poster:      p.posterURL(m.PosterPath),
			Rating:      m.VoteAverage,
			ReleaseDate: m.ReleaseDate,
		})
	}
	p.toCache(ctx, cacheKey, recs, recommendationsCacheTTL)
	return recs, nil
}

func (p *TMDBProvider) get(ctx context.Context, path string, out interface{}) error {
	if p.apiKey == "" {
		return fmt.Errorf("tmdb api key is required")
	}

	params := url.Values{"api_key": []string{p.apiKey}}
	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())

	return retry.DoWithLog(ctx, p.retryConfig, "TMDB",
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return retry.Permanent(fmt.Errorf("failed to build tmdb request: %w", err))
			}
			req.Header.Set("Accept", "application/json")

			resp, err := p.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("tmdb request failed: %w", err)
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Permanent(providers.ErrMetadataNotFound)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("tmdb request returned status %d", resp.StatusCode)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return retry.Permanent(fmt.Errorf("tmdb request returned status %d", resp.StatusCode))
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Permanent(fmt.Errorf("failed to decode tmdb response: %w", err))
			}
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Str("path", path).Msg("tmdb request failed")
		},
	)
}

func (p *TMDBProvider) posterURL(path string) string {
	if path == "" {
		return ""
	}
	return p.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}

func (p *TMDBProvider) fromCache(ctx context.Context, key string, out interface{}) bool {
	if p.cache == nil {
		return false
	}
	cached, err := p.cache.Get(ctx, key)
	if err != nil || len(cached) == 0 {
		return false
	}
	return json.Unmarshal(cached, out) == nil
}

func (p *TMDBProvider) toCache(ctx context.Context, key string, value interface{}, ttl int) {
	if p.cache == nil {
		return
	}
	if payload, err := json.Marshal(value); err == nil {
		_ = p.cache.Set(ctx, key, payload, ttl)
	}
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
