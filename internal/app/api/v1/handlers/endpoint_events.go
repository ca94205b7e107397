package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/medinfohub/med-portal/internal/app/api/core/respond"
	"github.com/medinfohub/med-portal/internal/app/api/v1/models"
	"github.com/medinfohub/med-portal/internal/domain"
)

type CommunityEventService interface {
	GetCommunityEvent(ctx context.Context, id domain.EventIdentifier) (*domain.CommunityEvent, error)
	GetUpcomingCommunityEvents(ctx context.Context) ([]domain.CommunityEvent, error)
	SaveCommunityEvent(ctx context.Context, event *domain.CommunityEvent) (*domain.CommunityEvent, error)
	DeleteCommunityEvent(ctx context.Context, id domain.EventIdentifier, reason string) error
}

type CommunityEventEndpoint struct {
	events CommunityEventService
}

func NewCommunityEventEndpoint(eventService CommunityEventService) *CommunityEventEndpoint {
	return &CommunityEventEndpoint{
		events: eventService,
	}
}

func (e CommunityEventEndpoint) GetName() string {
	return "CommunityEventEndpoint"
}

func (e CommunityEventEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/event")

	apiGroup.HandleFunc("GET /upcoming", e.handleUpcomingGet())
	apiGroup.HandleFunc("GET /by-id/{id}", e.handleByIdGet())
	apiGroup.HandleFunc("PUT /by-id/{id}", e.handleSavePut())
	apiGroup.HandleFunc("DELETE /by-id/{id}", e.handleDelete())
}

func (e CommunityEventEndpoint) handleUpcomingGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := e.events.GetUpcomingCommunityEvents(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewCommunityEvents(events))
	}
}

func (e CommunityEventEndpoint) handleByIdGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing event id"})
			return
		}

		event, err := e.events.GetCommunityEvent(r.Context(), domain.EventIdentifier(id))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewCommunityEvent(event))
	}
}

// handleSavePut creates or updates a community event.
func (e CommunityEventEndpoint) handleSavePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing event id"})
			return
		}

		var model models.CommunityEvent
		if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "invalid request body"})
			return
		}
		model.Identifier = id

		event, err := e.events.SaveCommunityEvent(r.Context(), models.NewDomainCommunityEvent(&model))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewCommunityEvent(event))
	}
}

func (e CommunityEventEndpoint) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing event id"})
			return
		}

		err := e.events.DeleteCommunityEvent(r.Context(), domain.EventIdentifier(id), r.URL.Query().Get("reason"))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}
