package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/medinfohub/med-portal/internal/app/api/core/respond"
	"github.com/medinfohub/med-portal/internal/app/api/v1/models"
	"github.com/medinfohub/med-portal/internal/domain"
)

type AuditService interface {
	// GetEvent returns a single audit event.
	GetEvent(ctx context.Context, id string) (*domain.AuditEvent, error)
	// GetTrail returns the complete history of one entity, oldest first.
	GetTrail(ctx context.Context, entityType, entityId string, from, to time.Time) ([]domain.AuditEvent, error)
	// GetEventsInRange returns all audit events in the given time window.
	GetEventsInRange(ctx context.Context, from, to time.Time) ([]domain.AuditEvent, error)
	// GetCorrelated returns all audit events that belong to one logical request.
	GetCorrelated(ctx context.Context, correlationId string) ([]domain.AuditEvent, error)
	// VerifyIntegrity checks the signature of one audit event.
	VerifyIntegrity(ctx context.Context, id string) (bool, error)
	// VerifyEntityIntegrity re-verifies the complete audit trail of one entity.
	VerifyEntityIntegrity(ctx context.Context, entityType, entityId string) (*domain.IntegrityReport, error)
}

type AuditEndpoint struct {
	audit AuditService
}

func NewAuditEndpoint(auditService AuditService) *AuditEndpoint {
	return &AuditEndpoint{
		audit: auditService,
	}
}

func (e AuditEndpoint) GetName() string {
	return "AuditEndpoint"
}

func (e AuditEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/audit")

	apiGroup.HandleFunc("GET /events", e.handleEventsGet())
	apiGroup.HandleFunc("GET /events/{id}", e.handleEventGet())
	apiGroup.HandleFunc("GET /trail/{entityType}/{entityId}", e.handleTrailGet())
	apiGroup.HandleFunc("GET /correlated/{correlationId}", e.handleCorrelatedGet())
	apiGroup.HandleFunc("GET /verify/{id}", e.handleVerifyGet())
	apiGroup.HandleFunc("GET /integrity/{entityType}/{entityId}", e.handleIntegrityGet())
}

// handleEventsGet returns all audit events in a time window. The from and to
// query parameters take RFC 3339 timestamps, both are optional.
func (e AuditEndpoint) handleEventsGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := parseTimeRange(w, r)
		if !ok {
			return
		}

		events, err := e.audit.GetEventsInRange(r.Context(), from, to)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewAuditEvents(events))
	}
}

func (e AuditEndpoint) handleEventGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing event id"})
			return
		}

		event, err := e.audit.GetEvent(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewAuditEvent(event))
	}
}

func (e AuditEndpoint) handleTrailGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityType := r.PathValue("entityType")
		entityId := r.PathValue("entityId")
		if entityType == "" || entityId == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing entity type or id"})
			return
		}

		from, to, ok := parseTimeRange(w, r)
		if !ok {
			return
		}

		events, err := e.audit.GetTrail(r.Context(), entityType, entityId, from, to)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewAuditEvents(events))
	}
}

func (e AuditEndpoint) handleCorrelatedGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationId := r.PathValue("correlationId")
		if correlationId == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing correlation id"})
			return
		}

		events, err := e.audit.GetCorrelated(r.Context(), correlationId)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewAuditEvents(events))
	}
}

func (e AuditEndpoint) handleVerifyGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing event id"})
			return
		}

		valid, err := e.audit.VerifyIntegrity(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, map[string]any{"Id": id, "Valid": valid})
	}
}

func (e AuditEndpoint) handleIntegrityGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityType := r.PathValue("entityType")
		entityId := r.PathValue("entityId")
		if entityType == "" || entityId == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing entity type or id"})
			return
		}

		report, err := e.audit.VerifyEntityIntegrity(r.Context(), entityType, entityId)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewIntegrityReport(report))
	}
}

// parseTimeRange reads the optional from/to query parameters. On a malformed
// timestamp the error response is already written and ok is false.
func parseTimeRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "invalid from timestamp"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "invalid to timestamp"})
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}

	return from, to, true
}
