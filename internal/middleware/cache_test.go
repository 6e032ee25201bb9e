package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/stasyao/mymdb/internal/config"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "catalog",
		MaxBodyBytes: 1 << 20,
	}
}

func cacheContext(target, routePath string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(routePath)
	return c
}

func TestCacheKeySeparatesPathParams(t *testing.T) {
	cfg := testCacheConfig()

	// Both requests resolve to the same route, so the key must come
	// from the concrete path or one person's page replays for another.
	k1 := cacheKey(cfg, cacheContext("/person/1/", "/person/:person_id/"))
	k2 := cacheKey(cfg, cacheContext("/person/2/", "/person/:person_id/"))
	assert.NotEqual(t, k1, k2)
}

func TestCacheKeyStableForSameRequest(t *testing.T) {
	cfg := testCacheConfig()

	k1 := cacheKey(cfg, cacheContext("/movies/?page=2", "/movies/"))
	k2 := cacheKey(cfg, cacheContext("/movies/?page=2", "/movies/"))
	assert.Equal(t, k1, k2)
}

func TestCacheKeySeparatesQuery(t *testing.T) {
	cfg := testCacheConfig()

	k1 := cacheKey(cfg, cacheContext("/movies/?page=1", "/movies/"))
	k2 := cacheKey(cfg, cacheContext("/movies/?page=2", "/movies/"))
	assert.NotEqual(t, k1, k2)
}

func TestPackUnpackResponseRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	body := []byte(`{"id":1}`)

	packed, err := packResponse(http.StatusOK, hdr, body)
	assert.NoError(t, err)

	status, gotHdr, gotBody, ok := unpackResponse(packed)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)
}

func TestUnpackResponseRejectsGarbage(t *testing.T) {
	_, _, _, ok := unpackResponse([]byte("short"))
	assert.False(t, ok)
}
