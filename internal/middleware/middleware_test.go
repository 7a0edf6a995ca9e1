package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/decision-ledger/internal/domain/ai"
	"github.com/bryanwahyu/decision-ledger/internal/domain/findings"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth("s3cret")(okHandler)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"health skips auth", "/health", nil, http.StatusOK},
		{"missing header", "/v1/dashboard", nil, http.StatusUnauthorized},
		{"bearer", "/v1/dashboard", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
		{"raw key", "/v1/dashboard", map[string]string{"Authorization": "s3cret"}, http.StatusOK},
		{"x-api-key", "/v1/dashboard", map[string]string{"X-API-Key": "s3cret"}, http.StatusOK},
		{"wrong key", "/v1/dashboard", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"empty bearer", "/v1/dashboard", map[string]string{"Authorization": "Bearer  "}, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	APIKeyAuth("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenBucketRefills(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	tb := newTokenBucket(2, 1, clock)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(500 * time.Millisecond)
	assert.False(t, tb.Allow())
	now = now.Add(600 * time.Millisecond)
	assert.True(t, tb.Allow())

	now = now.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "capped at capacity")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(2)(okHandler)
	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/scans/operational", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:3333"), "same ip, other port")
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111"))

	rec := httptest.NewRecorder()
	RateLimitMiddleware(0)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	fail := CheckerFunc(func(context.Context) error { return errors.New("down") })
	pass := CheckerFunc(func(context.Context) error { return nil })

	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		code     int
		status   string
	}{
		{"all healthy", map[string]HealthChecker{"store": pass}, http.StatusOK, "healthy"},
		{"optional failure", map[string]HealthChecker{"store": pass, "ai": Optional{fail}}, http.StatusOK, "degraded"},
		{"required failure", map[string]HealthChecker{"store": fail, "ai": Optional{fail}}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthHandler(tc.checkers)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tc.code, rec.Code)

			var body HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Status)
			assert.Len(t, body.Checks, len(tc.checkers))
		})
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/scans/{kind}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, kind := range []string{"operational", "revenue"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/scans/"+kind, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/v1/scans/{kind}", "GET", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsFlight))
}

func TestMetricsRecorders(t *testing.T) {
	m := NewMetrics()
	m.RecordScan(string(ai.KindOperational), string(ai.ModeDemo), "ok", time.Second)
	m.RecordParse(string(ai.KindOperational), findings.ParseStats{Segments: 4, Skipped: 1, Dropped: 2, Recovered: true})
	m.RecordParse(string(ai.KindOperational), findings.ParseStats{Segments: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("operational", "demo", "ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.parseSegments.WithLabelValues("operational")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseSkipped.WithLabelValues("operational")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.parseDropped.WithLabelValues("operational")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.parseRecovered.WithLabelValues("operational")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "ledger_parse_records_dropped_total")
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "warn", ev["level"])
	assert.Equal(t, "/v1/dashboard", ev["path"])
	assert.EqualValues(t, 418, ev["status"])
	assert.EqualValues(t, 15, ev["bytes"])
}

func TestResponseWriterFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := wrap(rec)
	var f http.Flusher = rw
	f.Flush()
	assert.True(t, rec.Flushed)
	assert.Same(t, rw, wrap(rw))
}

func TestValidators(t *testing.T) {
	k, err := ValidateKind("Revenue")
	require.NoError(t, err)
	assert.Equal(t, ai.KindRevenue, k)
	_, err = ValidateKind("forecast")
	assert.Error(t, err)

	id, err := ValidateFindingID(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	for _, bad := range []string{"0", "-1", "x", ""} {
		_, err := ValidateFindingID(bad)
		assert.Error(t, err, bad)
	}

	m, err := ValidateMode("")
	require.NoError(t, err)
	assert.Equal(t, ai.Mode(""), m)
	m, err = ValidateMode("demo")
	require.NoError(t, err)
	assert.Equal(t, ai.ModeDemo, m)
	_, err = ValidateMode("mock")
	assert.Error(t, err)

	assert.Equal(t, "ab\tc", SanitizeString(" a\x00b\tc\x07 "))
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(1)(okHandler)
	big := strings.NewReader(strings.Repeat("x", 2<<20))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans/operational", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scans/operational", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
}
