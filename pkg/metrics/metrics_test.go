package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_CountsByCanonicalPath(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/transform", "403"))

	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/transform", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/transform", "403"))
	assert.Equal(t, before+1, after)
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/api/guest/init", canonicalPath("/api/guest/init"))
	assert.Equal(t, "/api/other", canonicalPath("/api/guest/abc123"))
	assert.Equal(t, "/other", canonicalPath("/favicon.ico"))
}

func TestRecordRewrite_FailureCounted(t *testing.T) {
	before := testutil.ToFloat64(rewriteFailures.WithLabelValues("gemini"))
	RecordRewrite("gemini", 10*time.Millisecond, errors.New("boom"))
	RecordRewrite("gemini", 10*time.Millisecond, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(rewriteFailures.WithLabelValues("gemini")))
}

func TestHandler_ExposesDomainMetrics(t *testing.T) {
	RecordQuotaDenied()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "styletext_transform_quota_denied_total"))
}
