package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRejectsAfterBudget(t *testing.T) {
	counter := &fakeCounter{}
	srv := newTestServer(t, withRateLimit(counter, 1))

	rec := srv.do(multipartRequest(t, "/upload", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(multipartRequest(t, "/upload", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")

	rec = srv.do(multipartRequest(t, "/api/charts", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests, please retry"}`, rec.Body.String())

	assert.Equal(t, 1, srv.gen.calls())
	assertUploadDirEmpty(t, srv.uploadDir)
	require.NotEmpty(t, counter.keys)
	assert.True(t, strings.HasPrefix(counter.keys[0], "chartgen:ratelimit:"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &fakeCounter{err: errors.New("redis down")}
	srv := newTestServer(t, withRateLimit(counter, 1))

	for i := 0; i < 3; i++ {
		rec := srv.do(multipartRequest(t, "/upload", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, srv.gen.calls())
}

func TestRateLimitFallsBackToLocalLimiter(t *testing.T) {
	srv := newTestServer(t, withRateLimit(nil, 1))

	rec := srv.do(multipartRequest(t, "/api/charts", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(multipartRequest(t, "/api/charts", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, srv.gen.calls())

	metrics := srv.get("/metrics")
	assert.Contains(t, metrics.Body.String(), "chartgen_rate_limited_total 1")
}

func TestRateLimitDisabledWhenZero(t *testing.T) {
	srv := newTestServer(t, withRateLimit(&fakeCounter{}, 0))

	for i := 0; i < 3; i++ {
		rec := srv.do(multipartRequest(t, "/api/charts", "sales.xlsx", workbookBytes(t), map[string]string{"chartType": "bar"}))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestClientLimitersArePerClient(t *testing.T) {
	l := newClientLimiters(2)

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
}
