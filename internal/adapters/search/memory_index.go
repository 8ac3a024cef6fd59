package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spoileralert/backend/internal/domain/entities"
	"github.com/spoileralert/backend/internal/domain/repositories"
)

// MemoryIndex matches movie titles by case-insensitive substring. It is used
// when Typesense is not configured.
type MemoryIndex struct {
	mu     sync.RWMutex
	titles map[int]string
}

var _ repositories.MovieSearchRepository = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{titles: make(map[int]string)}
}

// Index adds or replaces a movie
func (m *MemoryIndex) Index(ctx context.Context, movie *entities.Movie) error {
	m.mu.Lock()
	m.titles[movie.ID] = strings.ToLower(movie.Title)
	m.mu.Unlock()
	return nil
}

// Delete removes a movie
func (m *MemoryIndex) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	delete(m.titles, id)
	m.mu.Unlock()
	return nil
}

// Search returns ids whose title contains query; prefix matches rank first
func (m *MemoryIndex) Search(ctx context.Context, query string, limit int) ([]int, error) {
	q := strings.ToLower(strings.TrimSpace(query))

	type match struct {
		id     int
		prefix bool
	}

	m.mu.RLock()
	var matches []match
	for id, title := range m.titles {
		if strings.Contains(title, q) {
			matches = append(matches, match{id: id, prefix: strings.HasPrefix(title, q)})
		}
	}
	m.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].id < matches[j].id
	})

	ids := []int{}
	for _, mt := range matches {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, mt.id)
	}
	return ids, nil
}
