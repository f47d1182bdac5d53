//go:build integration_test || all_tests

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/workout-tracker/internal/telemetry/metrics"
	pkgtesting "github.com/2beens/workout-tracker/pkg/testing"

	"github.com/go-redis/redis_rate/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_withRedis(t *testing.T) {
	ctx, rdb := pkgtesting.GetRedisClientAndCtx(t)
	defer func() {
		require.NoError(t, rdb.Close())
	}()

	limiter := redis_rate.NewLimiter(rdb)
	// httptest requests come from 192.0.2.1
	require.NoError(t, limiter.Reset(ctx, "rate-limit-test:192.0.2.1"))

	allowedPerMin := 3
	handlerFunc := RateLimit(limiter, "rate-limit-test", allowedPerMin, metrics.NewTestManager())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	for i := 0; i < allowedPerMin; i++ {
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, httptest.NewRequest("POST", "/auth/login", nil))
		assert.Equal(t, http.StatusOK, rr.Code, "request %d", i)
	}

	rr := httptest.NewRecorder()
	handlerFunc.ServeHTTP(rr, httptest.NewRequest("POST", "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}
