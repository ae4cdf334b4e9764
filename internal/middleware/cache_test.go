package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/secure-calc-api/internal/config"
)

func newCacheFixture(t *testing.T, cfg config.CacheConfig) (*echo.Echo, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	e := echo.New()
	g := e.Group("/v1/calc")
	g.Use(NewRedisCache(cfg, rdb))
	g.GET("/:op", func(c echo.Context) error {
		calls++
		if c.QueryParam("b") == "0" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "division by zero is not allowed"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"operation": c.Param("op"),
			"a":         c.QueryParam("a"),
			"b":         c.QueryParam("b"),
			"result":    5,
		})
	})
	return e, &calls
}

func cacheGet(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func enabledCacheConfig() config.CacheConfig {
	return config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "calc", MaxBodyBytes: 4096}
}

func TestRedisCache_RepeatedComputationHits(t *testing.T) {
	e, calls := newCacheFixture(t, enabledCacheConfig())

	first := cacheGet(e, "/v1/calc/add?a=2&b=3")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := cacheGet(e, "/v1/calc/add?a=2&b=3")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, *calls)
}

func TestRedisCache_OperandOrderIrrelevant(t *testing.T) {
	e, calls := newCacheFixture(t, enabledCacheConfig())

	cacheGet(e, "/v1/calc/add?a=2&b=3")
	rec := cacheGet(e, "/v1/calc/add?b=3&a=2")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, *calls)
}

func TestRedisCache_DistinctInputsMiss(t *testing.T) {
	e, calls := newCacheFixture(t, enabledCacheConfig())

	cacheGet(e, "/v1/calc/add?a=2&b=3")
	rec := cacheGet(e, "/v1/calc/mul?a=2&b=3")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec = cacheGet(e, "/v1/calc/add?a=2&b=4")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 3, *calls)
}

func TestRedisCache_ErrorsNotCached(t *testing.T) {
	e, calls := newCacheFixture(t, enabledCacheConfig())

	first := cacheGet(e, "/v1/calc/div?a=1&b=0")
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := cacheGet(e, "/v1/calc/div?a=1&b=0")
	require.Equal(t, http.StatusBadRequest, second.Code)
	assert.NotEqual(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 2, *calls)
}

func TestRedisCache_DisabledPassThrough(t *testing.T) {
	e, calls := newCacheFixture(t, config.CacheConfig{Enabled: false})

	cacheGet(e, "/v1/calc/add?a=2&b=3")
	rec := cacheGet(e, "/v1/calc/add?a=2&b=3")
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, *calls)
}
