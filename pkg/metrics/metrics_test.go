package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := New()

	c.ObserveHTTP("GET", "/system/health", 200, 5*time.Millisecond)
	c.ObserveHTTP("GET", "/system/health", 200, 5*time.Millisecond)
	c.LLMRequest("deepseek", OutcomeError)
	c.Fallback()
	c.EmailSent(OutcomeLogged)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/system/health", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.LLMRequests.WithLabelValues("deepseek", OutcomeError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.AgentFallback))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.EmailsSent.WithLabelValues(OutcomeLogged)))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveHTTP("GET", "/", 200, time.Millisecond)
		c.LLMRequest("anthropic", OutcomeSuccess)
		c.Fallback()
		c.EmailSent(OutcomeSuccess)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.Fallback()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agent_fallback_total 1")
}
