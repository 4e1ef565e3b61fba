package v1

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docvaulthq/docvault/internal/config"
)

type Handlers struct {
	Documents     *DocumentsHandler
	Workflows     *WorkflowsHandler
	Events        *EventsHandler
	Notifications *NotificationsHandler
	Repositories  *RepositoriesHandler
	Exports       *ExportsHandler
}

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg config.HTTP, h Handlers) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Post("/documents/upload", h.Documents.Upload)
		r.Get("/documents", h.Documents.List)
		r.Delete("/documents/{document_id}", h.Documents.Delete)
		r.Post("/documents/bulk", h.Documents.Bulk)

		r.Post("/workflow/instances", h.Workflows.Create)
		r.Post("/workflow/instances/{instance_id}", h.Workflows.Action)

		r.Get("/events", h.Events.Stream)

		r.Get("/notifications", h.Notifications.List)
		r.Post("/notifications/read", h.Notifications.MarkRead)

		r.Post("/repositories/{connector_id}/sync", h.Repositories.Sync)

		r.Get("/exports/{job_id}", h.Exports.Download)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			Handler:      r,
		},
	}
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
