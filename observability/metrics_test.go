package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAssessmentCounts(t *testing.T) {
	before := testutil.ToFloat64(Assessments.WithLabelValues("matched", "5"))
	ObserveAssessment("matched", 5)
	assert.Equal(t, before+1, testutil.ToFloat64(Assessments.WithLabelValues("matched", "5")))
}

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	reg := InitRegistry()
	ObserveHTTP("/health", http.MethodGet, http.StatusOK, 10*time.Millisecond)
	ObserveExternal("osrm", "route", http.StatusOK, 20*time.Millisecond)
	ObserveCache("redis", "miss")

	rr := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	for _, name := range []string{"chetak_http_requests_total", "chetak_external_requests_total", "chetak_cache_events_total"} {
		assert.True(t, strings.Contains(body, name), name)
	}
}
