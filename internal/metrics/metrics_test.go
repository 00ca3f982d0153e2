package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg, zerolog.Nop())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := newTestMetrics()

	m.RecordHTTPRequest("GET", "/api/v1/admin/forms", 200, 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/admin/forms", 201, 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/admin/forms", 404, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/admin/forms", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/admin/forms", "4xx")))
}

func TestCategorizeStatus(t *testing.T) {
	tests := map[int]string{200: "2xx", 302: "3xx", 422: "4xx", 503: "5xx", 100: "unknown"}
	for code, want := range tests {
		assert.Equal(t, want, categorizeStatus(code), code)
	}
}

func TestBusinessCounters(t *testing.T) {
	m := newTestMetrics()

	m.FormSaved("published")
	m.FormSaved("published")
	m.BuilderRejection("drop", "MAX_FIELDS_REACHED")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.SubmissionPersisted(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FormsSavedTotal.WithLabelValues("published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuilderRejectionsTotal.WithLabelValues("drop", "MAX_FIELDS_REACHED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuilderSessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsPersisted.WithLabelValues("retry")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FormSaved("draft")
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := newTestMetrics()
	m.SubmissionAccepted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "formcraft_submissions_total 1"))
}
