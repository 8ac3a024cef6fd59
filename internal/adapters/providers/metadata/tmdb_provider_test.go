package metadata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spoileralert/backend/internal/adapters/cache"
	"github.com/spoileralert/backend/internal/adapters/providers/metadata"
	"github.com/spoileralert/backend/internal/domain/providers"
	"github.com/spoileralert/backend/pkg/retry"
)

func testRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1}
}

func TestTMDBProvider_DetailsAndCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix","overview":"Neo wakes up.","poster_path":"/m.jpg","vote_average":8.2}`))
	}))
	defer server.Close()

	p := metadata.NewTMDBProviderWithOptions("key", cache.NewMemoryAdapter(), server.URL, "https://img.test/w500", server.Client(), testRetry())

	details, err := p.Details(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, "https://img.test/w500/m.jpg", details.Poster)
	assert.Equal(t, "Neo wakes up.", details.Overview)
	assert.Equal(t, 8.2, details.Rating)

	_, err = p.Details(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestTMDBProvider_Recommendations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603/recommendations", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"id":604,"title":"Reloaded","poster_path":"/r.jpg","vote_average":7.0,"release_date":"2003-05-15"},{"id":605,"title":"Revolutions","poster_path":""}]}`))
	}))
	defer server.Close()

	p := metadata.NewTMDBProviderWithOptions("key", nil, server.URL, "https://img.test/w500", server.Client(), testRetry())

	recs, err := p.Recommendations(context.Background(), 603)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Reloaded", recs[0].Title)
	assert.Equal(t, "https://img.test/w500/r.jpg", recs[0].Poster)
	assert.Empty(t, recs[1].Poster)
}

func TestTMDBProvider_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p := metadata.NewTMDBProviderWithOptions("key", nil, server.URL, "", server.Client(), testRetry())

	_, err := p.Details(context.Background(), 1)
	assert.ErrorIs(t, err, providers.ErrMetadataNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestTMDBProvider_RetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"overview":"ok"}`))
	}))
	defer server.Close()

	p := metadata.NewTMDBProviderWithOptions("key", nil, server.URL, "", server.Client(), testRetry())

	details, err := p.Details(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "ok", details.Overview)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestTMDBProvider_RequiresAPIKey(t *testing.T) {
	p := metadata.NewTMDBProviderWithOptions("", nil, "http://unused", "", nil, testRetry())
	_, err := p.Details(context.Background(), 1)
	assert.Error(t, err)
}
