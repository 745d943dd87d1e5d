package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	Phase           prometheus.Gauge
	Restores        *prometheus.CounterVec
	WorkspaceSaves  *prometheus.CounterVec
	SaveDuration    prometheus.Histogram
	SavesCoalesced  prometheus.Counter
	Actions         *prometheus.CounterVec
	QuitOutcomes    *prometheus.CounterVec
	MenuFailures    *prometheus.CounterVec
	EditorProblems  *prometheus.CounterVec
	HostConnections prometheus.Gauge

	// Deploy metrics
	Deploys        *prometheus.CounterVec
	DeployDuration prometheus.Histogram
}

// NewMetrics registers all metrics with reg. Passing a *prometheus.Registry
// also makes it the source for Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskshell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		Phase: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskshell_session_phase",
				Help: "Current lifecycle phase (0 initializing, 1 restoring, 2 ready, 3 quitting)",
			},
		),
		Restores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_workspace_restores_total",
				Help: "Workspace restores by outcome",
			},
			[]string{"outcome"},
		),
		WorkspaceSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_workspace_saves_total",
				Help: "Workspace saves by outcome",
			},
			[]string{"outcome"},
		),
		SaveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deskshell_workspace_save_duration_seconds",
				Help:    "Workspace save duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		SavesCoalesced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "deskshell_workspace_saves_coalesced_total",
				Help: "Workspace configs replaced by a newer one before being written",
			},
		),
		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_actions_total",
				Help: "Dispatched editor actions by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		QuitOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_quit_handshakes_total",
				Help: "Quit handshakes by outcome",
			},
			[]string{"outcome"},
		),
		MenuFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_menu_registration_failures_total",
				Help: "Failed menu registrations by document type",
			},
			[]string{"type"},
		),
		EditorProblems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_editor_problems_total",
				Help: "Errors and warnings reported by the editor surface",
			},
			[]string{"severity", "scope"},
		),
		HostConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskshell_host_connections",
				Help: "Connected host integration layers",
			},
		),
		Deploys: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskshell_deploys_total",
				Help: "Deployments by outcome",
			},
			[]string{"outcome"},
		),
		DeployDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deskshell_deploy_duration_seconds",
				Help:    "Deployment duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordHTTPRequest records an API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetPhase records the lifecycle phase
func (m *Metrics) SetPhase(phase int) {
	if m == nil {
		return
	}
	m.Phase.Set(float64(phase))
}

// RecordRestore records a workspace restore
func (m *Metrics) RecordRestore(err error) {
	if m == nil {
		return
	}
	m.Restores.WithLabelValues(outcome(err)).Inc()
}

// RecordSave records a workspace save
func (m *Metrics) RecordSave(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.WorkspaceSaves.WithLabelValues(outcome(err)).Inc()
	m.SaveDuration.Observe(duration.Seconds())
}

// RecordSaveCoalesced records a pending save replaced by a newer config
func (m *Metrics) RecordSaveCoalesced() {
	if m == nil {
		return
	}
	m.SavesCoalesced.Inc()
}

// RecordAction records a dispatched action
func (m *Metrics) RecordAction(actionType string, err error) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(actionType, outcome(err)).Inc()
}

// RecordQuit records a quit handshake; allowed is false for aborted quits
func (m *Metrics) RecordQuit(allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.QuitOutcomes.WithLabelValues("allowed").Inc()
		return
	}
	m.QuitOutcomes.WithLabelValues("aborted").Inc()
}

// RecordMenuFailure records a failed menu registration
func (m *Metrics) RecordMenuFailure(docType string) {
	if m == nil {
		return
	}
	m.MenuFailures.WithLabelValues(docType).Inc()
}

// RecordEditorProblem records an editor error or warning; scope is "tab" or "app"
func (m *Metrics) RecordEditorProblem(severity, scope string) {
	if m == nil {
		return
	}
	m.EditorProblems.WithLabelValues(severity, scope).Inc()
}

// HostConnected tracks host connections
func (m *Metrics) HostConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.HostConnections.Inc()
		return
	}
	m.HostConnections.Dec()
}

// RecordDeploy records a deployment
func (m *Metrics) RecordDeploy(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.Deploys.WithLabelValues(outcome(err)).Inc()
	m.DeployDuration.Observe(duration.Seconds())
}
