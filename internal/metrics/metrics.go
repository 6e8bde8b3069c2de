// Package metrics собирает метрики Prometheus агента в собственном реестре.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "browser_agent"

type Metrics struct {
	registry *prometheus.Registry

	llmRequests *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec
	tools       *prometheus.CounterVec
	toolLatency *prometheus.HistogramVec
	gate        *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	steps       prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Запросы к модели по вендору, роли и статусу",
		}, []string{"vendor", "role", "status"}),
		llmDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Длительность запроса к модели с учетом повторов",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"vendor", "role"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Израсходованные токены",
		}, []string{"vendor", "role"}),
		tools: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_executions_total",
			Help:      "Вызовы инструментов браузера по статусу",
		}, []string{"tool", "status"}),
		toolLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Длительность выполнения инструмента",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		gate: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_gate_decisions_total",
			Help:      "Решения проверки безопасности",
		}, []string{"decision"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_outcomes_total",
			Help:      "Завершенные задачи по итоговому состоянию",
		}, []string{"state"}),
		steps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_steps",
			Help:      "Число ходов исполнителя на задачу",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 100},
		}),
	}
}

func (m *Metrics) ObserveLLMRequest(vendor, role, status string, elapsed time.Duration, tokens int) {
	m.llmRequests.WithLabelValues(vendor, role, status).Inc()
	m.llmDuration.WithLabelValues(vendor, role).Observe(elapsed.Seconds())
	if tokens > 0 {
		m.llmTokens.WithLabelValues(vendor, role).Add(float64(tokens))
	}
}

func (m *Metrics) ObserveTool(tool, status string, elapsed time.Duration) {
	m.tools.WithLabelValues(tool, status).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveGate(decision string) {
	m.gate.WithLabelValues(decision).Inc()
}

// ObserveOutcome учитывает завершение задачи и число сделанных ходов.
func (m *Metrics) ObserveOutcome(state string, steps int) {
	m.outcomes.WithLabelValues(state).Inc()
	m.steps.Observe(float64(steps))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдает метрики в текстовом формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
