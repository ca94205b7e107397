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

type NewsService interface {
	GetNewsArticle(ctx context.Context, id domain.NewsIdentifier) (*domain.NewsArticle, error)
	GetAllNewsArticles(ctx context.Context) ([]domain.NewsArticle, error)
	SaveNewsArticle(ctx context.Context, article *domain.NewsArticle) (*domain.NewsArticle, error)
	DeleteNewsArticle(ctx context.Context, id domain.NewsIdentifier, reason string) error
}

type NewsEndpoint struct {
	news NewsService
}

func NewNewsEndpoint(newsService NewsService) *NewsEndpoint {
	return &NewsEndpoint{
		news: newsService,
	}
}

func (e NewsEndpoint) GetName() string {
	return "NewsEndpoint"
}

func (e NewsEndpoint) RegisterRoutes(g *routegroup.Bundle) {
	apiGroup := g.Mount("/news")

	apiGroup.HandleFunc("GET /all", e.handleAllGet())
	apiGroup.HandleFunc("GET /by-id/{id}", e.handleByIdGet())
	apiGroup.HandleFunc("PUT /by-id/{id}", e.handleSavePut())
	apiGroup.HandleFunc("DELETE /by-id/{id}", e.handleDelete())
}

func (e NewsEndpoint) handleAllGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := e.news.GetAllNewsArticles(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewNewsArticles(articles))
	}
}

func (e NewsEndpoint) handleByIdGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing article id"})
			return
		}

		article, err := e.news.GetNewsArticle(r.Context(), domain.NewsIdentifier(id))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewNewsArticle(article))
	}
}

// handleSavePut creates or updates a news article.
func (e NewsEndpoint) handleSavePut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing article id"})
			return
		}

		var model models.NewsArticle
		if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "invalid request body"})
			return
		}
		model.Identifier = id

		article, err := e.news.SaveNewsArticle(r.Context(), models.NewDomainNewsArticle(&model))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.JSON(w, http.StatusOK, models.NewNewsArticle(article))
	}
}

func (e NewsEndpoint) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			respond.JSON(w, http.StatusBadRequest,
				models.Error{Code: http.StatusBadRequest, Message: "missing article id"})
			return
		}

		err := e.news.DeleteNewsArticle(r.Context(), domain.NewsIdentifier(id), r.URL.Query().Get("reason"))
		if err != nil {
			respondError(w, err)
			return
		}

		respond.Status(w, http.StatusNoContent)
	}
}
