package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveLLMRequest("openai", "actor", "ok", 300*time.Millisecond, 120)
	m.ObserveLLMRequest("openai", "actor", "error", time.Second, 0)
	m.ObserveTool("browser_click", "ok", 20*time.Millisecond)
	m.ObserveGate("declined")
	m.ObserveOutcome("need_user", 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("openai", "actor", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("openai", "actor", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("openai", "actor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tools.WithLabelValues("browser_click", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gate.WithLabelValues("declined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("need_user")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.steps))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveGate("approved")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.gate.WithLabelValues("approved")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveOutcome("done", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `browser_agent_task_outcomes_total{state="done"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
