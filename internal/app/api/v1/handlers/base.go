package handlers

import (
	"errors"
	"net/http"

	"github.com/go-pkgz/routegroup"

	"github.com/medinfohub/med-portal/internal/app/api/core"
	"github.com/medinfohub/med-portal/internal/app/api/core/respond"
	"github.com/medinfohub/med-portal/internal/app/api/v1/models"
	"github.com/medinfohub/med-portal/internal/domain"
)

type Handler interface {
	// GetName returns the name of the handler.
	GetName() string
	// RegisterRoutes registers the routes for the handler.
	RegisterRoutes(g *routegroup.Bundle)
}

func NewRestApi(handlers ...Handler) core.ApiEndpointSetupFunc {
	return func() (core.ApiVersion, core.GroupSetupFn) {
		return "v1", func(group *routegroup.Bundle) {
			group.Use(CallerContextMiddleware)

			for _, h := range handlers {
				h.RegisterRoutes(group)
			}
		}
	}
}

// ParseServiceError maps a service error to an HTTP status code and an API
// error model.
func ParseServiceError(err error) (int, models.Error) {
	if err == nil {
		return http.StatusInternalServerError, models.Error{
			Code:    http.StatusInternalServerError,
			Message: "unknown server error",
		}
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrNoPermission):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateEntry), errors.Is(err, domain.ErrNotUnique):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidData):
		code = http.StatusBadRequest
	}

	return code, models.Error{
		Code:    code,
		Message: err.Error(),
	}
}

// respondError writes a service error as JSON response.
func respondError(w http.ResponseWriter, err error) {
	code, model := ParseServiceError(err)
	respond.JSON(w, code, model)
}
