package adapters

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medinfohub/med-portal/internal/config"
	"github.com/medinfohub/med-portal/internal/domain"
)

// MetricsServer exposes prometheus metrics for the audit subsystem.
// Counters are fed through the event bus (wired in main), gauges are polled
// from the database in a background job.
type MetricsServer struct {
	*http.Server
	db *SqlRepo

	updateInterval time.Duration

	auditEventsWritten  *prometheus.CounterVec
	auditWriteFailures  prometheus.Counter
	integrityViolations prometheus.Counter
	alertsSent          *prometheus.CounterVec

	auditEventsTotal   prometheus.Gauge
	auditCriticalTotal prometheus.Gauge
}

// NewMetricsServer returns a new prometheus server
func NewMetricsServer(cfg *config.Config, db *SqlRepo) *MetricsServer {
	reg := prometheus.NewRegistry()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		Server: &http.Server{
			Addr:    cfg.Statistics.ListeningAddress,
			Handler: mux,
		},
		db: db,

		updateInterval: cfg.Statistics.UpdateInterval,

		auditEventsWritten: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "medportal_audit_events_written_total",
				Help: "Audit events successfully persisted, by event type.",
			}, []string{"event_type"},
		),
		auditWriteFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "medportal_audit_write_failures_total",
				Help: "Audit events that could not be persisted or signed.",
			},
		),
		integrityViolations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "medportal_audit_integrity_violations_total",
				Help: "Signature mismatches detected by integrity verification.",
			},
		),
		alertsSent: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "medportal_audit_alerts_sent_total",
				Help: "Compliance alerts sent, by channel.",
			}, []string{"channel"},
		),

		auditEventsTotal: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "medportal_audit_events",
				Help: "Total number of persisted audit events.",
			},
		),
		auditCriticalTotal: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "medportal_audit_events_critical",
				Help: "Number of persisted audit events flagged as critical.",
			},
		),
	}
}

// Run starts the metrics server and blocks until the context is done.
func (m *MetricsServer) Run(ctx context.Context) {
	go func() {
		if err := m.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("[METRICS] service exited", "address", m.Addr, "error", err)
		}
	}()

	slog.Info("[METRICS] started metrics service", "address", m.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Shutdown(shutdownCtx); err != nil {
		slog.Error("[METRICS] failed to shut down metrics service", "error", err)
	}
}

// StartBackgroundJobs starts the gauge refresh loop. Non-blocking.
func (m *MetricsServer) StartBackgroundJobs(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.updateInterval):
				// select blocks until one of the cases evaluate to true
			}

			m.updateGauges(ctx)
		}
	}()
}

func (m *MetricsServer) updateGauges(ctx context.Context) {
	total, err := m.db.CountAuditEvents(ctx)
	if err != nil {
		slog.Warn("[METRICS] failed to count audit events", "error", err)
		return
	}
	m.auditEventsTotal.Set(float64(total))

	critical, err := m.db.CountCriticalAuditEvents(ctx)
	if err != nil {
		slog.Warn("[METRICS] failed to count critical audit events", "error", err)
		return
	}
	m.auditCriticalTotal.Set(float64(critical))
}

// region event-bus-handlers

// HandleAuditCreated counts a successfully persisted audit event.
func (m *MetricsServer) HandleAuditCreated(event domain.AuditEvent) {
	m.auditEventsWritten.WithLabelValues(string(event.EventType)).Inc()
}

// HandleAuditWriteFailed counts a failed audit write.
func (m *MetricsServer) HandleAuditWriteFailed(_ string) {
	m.auditWriteFailures.Inc()
}

// HandleIntegrityViolations counts detected signature mismatches.
func (m *MetricsServer) HandleIntegrityViolations(report domain.IntegrityReport) {
	m.integrityViolations.Add(float64(report.InvalidEvents))
}

// HandleAlertSent counts a sent compliance alert.
func (m *MetricsServer) HandleAlertSent(channel string) {
	m.alertsSent.WithLabelValues(channel).Inc()
}

// endregion event-bus-handlers
