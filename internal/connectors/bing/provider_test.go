package bing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
)

const webResponse = `{
  "_type": "SearchResponse",
  "webPages": {
    "value": [
      {"name": "Weather forecast", "url": "https://weather.example/today",
       "snippet": "Sunny with light wind."},
      {"name": "Berlin weather forecast today", "url": "https://weather.example/berlin",
       "snippet": "Berlin today: 18 degrees."},
      {"name": "Unrelated", "url": "https://example.com/other", "snippet": "Nothing here."}
    ]
  }
}`

type bingServer struct {
	*httptest.Server

	mu       sync.Mutex
	lastReq  *http.Request
	requests int
}

func newBingServer(t *testing.T, handler http.HandlerFunc) *bingServer {
	t.Helper()
	s := &bingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastReq = r.Clone(context.Background())
		s.requests++
		s.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *bingServer) last() *http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

func (s *bingServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func newTestProvider(t *testing.T, s *bingServer) *Provider {
	t.Helper()
	p, err := NewProviderWithHTTPClient(domain.BingSettings{
		APIKey:   "test-key",
		Endpoint: s.URL + "/v7.0/search",
		Market:   "en-US",
		Count:    5,
	}, s.Client())
	require.NoError(t, err)
	return p
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestProvider_Search(t *testing.T) {
	s := newBingServer(t, jsonReply(http.StatusOK, webResponse))
	p := newTestProvider(t, s)

	results, err := p.Search(context.Background(), "Berlin weather today", time.Second)
	require.NoError(t, err)
	require.Len(t, results, 3)

	req := s.last()
	assert.Equal(t, "/v7.0/search", req.URL.Path)
	assert.Equal(t, "Berlin weather today", req.URL.Query().Get("q"))
	assert.Equal(t, "5", req.URL.Query().Get("count"))
	assert.Equal(t, "en-US", req.URL.Query().Get("mkt"))
	assert.Equal(t, "test-key", req.Header.Get("Ocp-Apim-Subscription-Key"))

	// Title has all three keywords (6) and the snippet two (2): 8/9.
	assert.Equal(t, "https://weather.example/berlin", results[0].URL)
	assert.InDelta(t, 8.0/9.0, results[0].RelevanceScore, 1e-9)
	assert.Equal(t, "Berlin weather forecast today", results[0].Title)
	assert.Equal(t, "Berlin today: 18 degrees.", results[0].Snippet)
	assert.Equal(t, ProviderName, results[0].Source)

	assert.Equal(t, "https://weather.example/today", results[1].URL)
	assert.InDelta(t, 2.0/9.0, results[1].RelevanceScore, 1e-9)

	assert.Equal(t, "https://example.com/other", results[2].URL)
	assert.Equal(t, 0.0, results[2].RelevanceScore)
	assert.False(t, results[2].FetchedAt.IsZero())
}

func TestProvider_SearchNoPages(t *testing.T) {
	s := newBingServer(t, jsonReply(http.StatusOK, `{"_type":"SearchResponse"}`))
	p := newTestProvider(t, s)

	results, err := p.Search(context.Background(), "qwertyuiop", time.Second)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProvider_SearchErrors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantKind   error
		retryable  bool
		retryAfter time.Duration
	}{
		{
			name:     "unauthorized",
			handler:  jsonReply(http.StatusUnauthorized, `{"error":{"code":"401","message":"Access denied"}}`),
			wantKind: domain.ErrUnauthorized,
		},
		{
			name:     "forbidden",
			handler:  jsonReply(http.StatusForbidden, `{}`),
			wantKind: domain.ErrUnauthorized,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "2")
				jsonReply(http.StatusTooManyRequests, `{}`)(w, r)
			},
			wantKind:   domain.ErrRateLimited,
			retryable:  true,
			retryAfter: 2 * time.Second,
		},
		{
			name:     "bad request",
			handler:  jsonReply(http.StatusBadRequest, `{"error":{"code":"InvalidRequest","message":"bad mkt"}}`),
			wantKind: domain.ErrInvalidInput,
		},
		{
			name:     "not found",
			handler:  jsonReply(http.StatusNotFound, `{}`),
			wantKind: domain.ErrInvalidInput,
		},
		{
			name:      "server error",
			handler:   jsonReply(http.StatusServiceUnavailable, `oops`),
			wantKind:  domain.ErrTransport,
			retryable: true,
		},
		{
			name:      "malformed body",
			handler:   jsonReply(http.StatusOK, `{"webPages": {`),
			wantKind:  domain.ErrTransport,
			retryable: true,
		},
		{
			name:      "error object in body",
			handler:   jsonReply(http.StatusOK, `{"error":{"code":"InvalidRequest","message":"bad mkt"}}`),
			wantKind:  domain.ErrTransport,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newBingServer(t, tt.handler)
			p := newTestProvider(t, s)

			_, err := p.Search(context.Background(), "weather", time.Second)
			require.Error(t, err)

			var pe *domain.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, ProviderName, pe.Provider)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
			assert.Equal(t, tt.retryAfter, domain.RetryAfter(err))
		})
	}
}

func TestProvider_BackoffAfter429(t *testing.T) {
	s := newBingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		jsonReply(http.StatusTooManyRequests, `{}`)(w, r)
	})
	p := newTestProvider(t, s)

	_, err := p.Search(context.Background(), "weather", time.Second)
	require.ErrorIs(t, err, domain.ErrRateLimited)
	require.Equal(t, 1, s.count())

	// Inside the window the call fails fast without a request.
	_, err = p.Search(context.Background(), "weather", time.Second)
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, s.count())
	assert.Greater(t, domain.RetryAfter(err), 50*time.Second)
}

func TestProvider_SearchTimeout(t *testing.T) {
	s := newBingServer(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	p := newTestProvider(t, s)

	start := time.Now()
	_, err := p.Search(context.Background(), "weather", 50*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.True(t, domain.IsRetryable(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestProvider_SearchEmptyQuery(t *testing.T) {
	s := newBingServer(t, jsonReply(http.StatusOK, webResponse))
	p := newTestProvider(t, s)

	_, err := p.Search(context.Background(), " ", time.Second)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, 0, s.count())
}

func TestNewProvider(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewProvider(domain.BingSettings{})
		assert.ErrorIs(t, err, ErrAPIKeyMissing)
	})

	t.Run("applies defaults", func(t *testing.T) {
		p, err := NewProvider(domain.BingSettings{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultBingEndpoint, p.endpoint.String())
		assert.Equal(t, DefaultCount, p.count)
		assert.Equal(t, ProviderName, p.Name())
	})

	t.Run("clamps count", func(t *testing.T) {
		p, err := NewProvider(domain.BingSettings{APIKey: "k", Count: 500})
		require.NoError(t, err)
		assert.Equal(t, MaxCount, p.count)
	})

	t.Run("rejects endpoint without host", func(t *testing.T) {
		_, err := NewProvider(domain.BingSettings{APIKey: "k", Endpoint: "/search"})
		assert.Error(t, err)
	})
}

func TestRelevance(t *testing.T) {
	page := webPage{Name: "Rust Async Book", Snippet: "Learn async programming"}

	tests := []struct {
		query string
		want  float64
	}{
		{"", 0},
		{"rust", 2.0 / 3.0},
		{"async", 3.0 / 3.0},
		{"rust async", 5.0 / 6.0},
		{"python", 0},
		{"async ASYNC", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := relevance(page, keywords(tt.query))
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestRateLimiter_RecordRateLimitError(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 0})

	rl.RecordRateLimitError(0)
	assert.WithinDuration(t, time.Now().Add(defaultBackoff), rl.RetryAt(), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	var backoff *BackoffError
	assert.True(t, errors.As(rl.Wait(ctx), &backoff))

	rl.RecordRateLimitError(20 * time.Millisecond)
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	assert.NoError(t, rl.Wait(ctx2))
}
