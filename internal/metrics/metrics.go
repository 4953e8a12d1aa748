// Package metrics exposes bot counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reasons a quiz ends.
const (
	EndCompleted = "completed"
	EndStopped   = "stopped"
	EndTimeout   = "timeout"
)

// Metrics holds the bot's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	quizzesStarted *prometheus.CounterVec
	quizzesEnded   *prometheus.CounterVec
	answers        *prometheus.CounterVec
	llmRequests    *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	populated      *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		quizzesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_quizzes_started_total",
			Help: "Quizzes started, by scope",
		}, []string{"scope"}),
		quizzesEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_quizzes_ended_total",
			Help: "Quizzes ended, by reason",
		}, []string{"reason"}),
		answers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_answers_total",
			Help: "Graded answers, by question kind and result",
		}, []string{"kind", "result"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_llm_requests_total",
			Help: "LLM requests, by purpose and status",
		}, []string{"purpose", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "calcbot_llm_request_duration_seconds",
			Help:    "LLM request latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"purpose"}),
		populated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "calcbot_questions_populated_total",
			Help: "Questions produced by bank population, by outcome",
		}, []string{"outcome"}),
	}
}

// TrackActiveSessions exports fn as the active quiz gauge. Call it once.
func (m *Metrics) TrackActiveSessions(fn func() int) {
	promauto.With(m.reg).NewGaugeFunc(prometheus.GaugeOpts{
		Name: "calcbot_active_quizzes",
		Help: "Quizzes currently running",
	}, func() float64 { return float64(fn()) })
}

func (m *Metrics) QuizStarted(scope string) {
	m.quizzesStarted.WithLabelValues(scope).Inc()
}

func (m *Metrics) QuizEnded(reason string) {
	m.quizzesEnded.WithLabelValues(reason).Inc()
}

// Answer counts a graded answer. result is "correct", "incorrect" or
// "unclear".
func (m *Metrics) Answer(kind, result string) {
	m.answers.WithLabelValues(kind, result).Inc()
}

// Populated adds population outcomes.
func (m *Metrics) Populated(created, duplicates, failed int) {
	m.populated.WithLabelValues("created").Add(float64(created))
	m.populated.WithLabelValues("duplicate").Add(float64(duplicates))
	m.populated.WithLabelValues("failed").Add(float64(failed))
}

// ObserveLLM matches the llm.WithObserver callback signature.
func (m *Metrics) ObserveLLM(purpose string, success bool, latency time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.llmRequests.WithLabelValues(purpose, status).Inc()
	m.llmLatency.WithLabelValues(purpose).Observe(latency.Seconds())
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve runs the /metrics endpoint on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
