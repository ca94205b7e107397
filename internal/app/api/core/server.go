package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-pkgz/routegroup"

	"github.com/medinfohub/med-portal/internal"
	"github.com/medinfohub/med-portal/internal/app/api/core/middleware/cors"
	"github.com/medinfohub/med-portal/internal/app/api/core/middleware/logging"
	"github.com/medinfohub/med-portal/internal/app/api/core/middleware/recovery"
	"github.com/medinfohub/med-portal/internal/app/api/core/middleware/tracing"
	"github.com/medinfohub/med-portal/internal/app/api/core/respond"
	"github.com/medinfohub/med-portal/internal/config"
)

type ApiVersion string
type HandlerName string

type GroupSetupFn func(group *routegroup.Bundle)

type ApiEndpointSetupFunc func() (ApiVersion, GroupSetupFn)

type Server struct {
	cfg      *config.Config
	server   *routegroup.Bundle
	versions map[ApiVersion]*routegroup.Bundle
}

func NewServer(cfg *config.Config, endpoints ...ApiEndpointSetupFunc) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		server: routegroup.New(http.NewServeMux()),
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "apiserver"
	}
	hostname += ", version " + internal.Version

	s.server.Use(recovery.New().Handler)
	if cfg.Web.RequestLogging {
		s.server.Use(logging.New(slog.LevelDebug).Handler)
	}
	s.server.Use(cors.New().Handler)
	s.server.Use(tracing.New().Handler)
	if cfg.Web.ExposeHostInfo {
		s.server.Use(func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Served-By", hostname)
				handler.ServeHTTP(w, r)
			})
		})
	}

	s.setupRoutes(endpoints...)

	return s, nil
}

func (s *Server) Run(ctx context.Context, listenAddress string) {
	srv := &http.Server{
		Addr:    listenAddress,
		Handler: s.server,
	}

	srvContext, cancelFn := context.WithCancel(ctx)
	go func() {
		var err error
		if s.cfg.Web.CertFile != "" && s.cfg.Web.KeyFile != "" {
			err = srv.ListenAndServeTLS(s.cfg.Web.CertFile, s.cfg.Web.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil {
			slog.Info("web service exited", "address", listenAddress, "error", err)
			cancelFn()
		}
	}()
	slog.Info("started web service", "address", listenAddress)

	// Wait for the main context to end
	<-srvContext.Done()

	slog.Debug("web service shutting down, grace period: 5 seconds")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	slog.Debug("web service shut down")
}

func (s *Server) setupRoutes(endpoints ...ApiEndpointSetupFunc) {
	s.server.HandleFunc("GET /api", s.landingPage)
	s.server.HandleFunc("GET /api/health", s.healthCheck)
	s.versions = make(map[ApiVersion]*routegroup.Bundle)

	for _, setupFunc := range endpoints {
		version, groupSetupFn := setupFunc()

		if _, ok := s.versions[version]; !ok {
			s.versions[version] = s.server.Mount(fmt.Sprintf("/api/%s", version))
		}

		groupSetupFn(s.versions[version])
	}
}

// healthCheck is a liveness probe target, it only proves that the HTTP stack
// is up and serving.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	respond.String(w, http.StatusOK, "ok")
}

func (s *Server) landingPage(w http.ResponseWriter, _ *http.Request) {
	versions := make([]ApiVersion, 0, len(s.versions))
	for version := range s.versions {
		versions = append(versions, version)
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"name":     s.cfg.Core.SiteTitle,
		"version":  internal.Version,
		"versions": versions,
	})
}
