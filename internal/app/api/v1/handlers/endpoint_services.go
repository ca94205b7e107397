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

type DirectoryService interface {
	GetService(ctx context.Context, id domain.ServiceIdentifier) (*domain.Service, error)
	GetAllServices(ctx context.Context) ([]domain.Service, error)
	FindServices(ctx context.Context, search string) ([]domain.Service, error)
	CreateService(ctx context.Context, service *domain.Service) (*domain.Service, error)
	UpdateService(ctx context.Context, service *domain.Service) (*domain.Service, error)
	DeleteService(ctx context.Context, id domain.ServiceIdentifier, reason string) error
	PublishService(ctx context.Context, id domain.ServiceIdentifier) (*domain.Service, error)
	UnpublishService(ctx context.Context, id domain.ServiceIdentifier, reason string) (*domain.Service, error)
}

type ServiceEndpoint struct {
	directory DirectoryService
}

func NewServiceEndpoint(directoryService DirectoryService) *ServiceEndpoint {
	return &ServiceEndpoint{
		directory: directoryService,
	}
}

func (e ServiceEndpoint) GetName() string {
	return "ServiceEndpoint"
}

func (e ServiceEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/service")

	apiGroup.HandleFunc("GET /all", e.handleAllGet())
	apiGroup.HandleFunc("GET /search", e.handleSearchGet())
	apiGroup.HandleFunc("GET /by-id/{id}", e.handleByIdGet())
	apiGroup.HandleFunc("POST /new", e.handleCreatePost())
	apiGroup.HandleFunc("PUT /by-id/{id}", e.handleUpdatePut())
	apiGroup.HandleFunc("DELETE /by-id/{id}", e.handleDelete())
	apiGroup.HandleFunc("POST /by-id/{id}/publish", e.handlePublishPost())
	apiGroup.HandleFunc("POST /by-id/{id}/unpublish", e.handleUnpublishPost())
}

// handleAllGet returns all directory entries that are visible to the caller.
func (e ServiceEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := e.directory.GetAllServices(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewServices(services))
	}
}

// handleSearchGet searches directory entries by title or specialty using the
// q query parameter.
func (e ServiceEndpoint) handleSearchGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("q")
		if search == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing search term"})
			return
		}

		services, err := e.directory.FindServices(r.Context(), search)
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewServices(services))
	}
}

func (e ServiceEndpoint) handleByIdGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing service id"})
			return
		}

		service, err := e.directory.GetService(r.Context(), domain.ServiceIdentifier(id))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewService(service))
	}
}

func (e ServiceEndpoint) handleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var model models.Service
		if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "invalid request body"})
			return
		}

		service, err := e.directory.CreateService(r.Context(), models.NewDomainService(&model))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusCreated, models.NewService(service))
	}
}

func (e ServiceEndpoint) handleUpdatePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing service id"})
			return
		}

		var model models.Service
		if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "invalid request body"})
			return
		}
		model.Identifier = id

		service, err := e.directory.UpdateService(r.Context(), models.NewDomainService(&model))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewService(service))
	}
}

// handleDelete removes a directory entry. The optional reason query parameter
// is recorded in the audit log.
func (e ServiceEndpoint) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing service id"})
			return
		}

		err := e.directory.DeleteService(r.Context(), domain.ServiceIdentifier(id), r.URL.Query().Get("reason"))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}

func (e ServiceEndpoint) handlePublishPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing service id"})
			return
		}

		service, err := e.directory.PublishService(r.Context(), domain.ServiceIdentifier(id))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewService(service))
	}
}

func (e ServiceEndpoint) handleUnpublishPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing service id"})
			return
		}

		service, err := e.directory.UnpublishService(r.Context(), domain.ServiceIdentifier(id), r.URL.Query().Get("reason"))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewService(service))
	}
}
