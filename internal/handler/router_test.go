package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sparrowchat/sparrow/internal/config"
)

func testRouter(cfg *config.Config) http.Handler {
	// Handlers stay nil; these tests only exercise the middleware chain,
	// which rejects before any handler runs.
	return NewRouter(nil, nil, http.NotFoundHandler(), ".", nil, cfg)
}

func TestRouter_RateLimiting(t *testing.T) {
	cfg := &config.Config{
		ServiceName:   "sparrow-test",
		JWTSecret:     "test-secret",
		RateLimitReqs: 10,
		RateLimitWin:  "1m",
	}

	server := httptest.NewServer(testRouter(cfg))
	defer server.Close()

	client := server.Client()

	for i := 0; i < 10; i++ {
		res, err := client.Get(server.URL + "/api/messages/contacts")
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		// No JWT attached, so these come back 401, never 429.
		if res.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("request %d got 429 too early", i)
		}
		res.Body.Close()
	}

	res, err := client.Get(server.URL + "/api/messages/contacts")
	if err != nil {
		t.Fatalf("11th request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 on the 11th request, got %d", res.StatusCode)
	}
}

func TestRouter_APIRequiresJWT(t *testing.T) {
	cfg := &config.Config{
		ServiceName:   "sparrow-test",
		JWTSecret:     "test-secret",
		RateLimitReqs: 100,
		RateLimitWin:  "1m",
	}

	server := httptest.NewServer(testRouter(cfg))
	defer server.Close()

	paths := []string{
		"/api/messages/contacts",
		"/api/messages/requests",
		"/api/messages/some-user-id",
		"/api/users/search",
		"/api/users/online",
	}
	for _, path := range paths {
		res, err := server.Client().Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401 without a token, got %d", path, res.StatusCode)
		}
		res.Body.Close()
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	cfg := &config.Config{
		ServiceName:   "sparrow-test",
		JWTSecret:     "test-secret",
		RateLimitReqs: 100,
		RateLimitWin:  "1m",
	}

	server := httptest.NewServer(testRouter(cfg))
	defer server.Close()

	res, err := server.Client().Get(server.URL + "/health/live")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /health/live, got %d", res.StatusCode)
	}
}
