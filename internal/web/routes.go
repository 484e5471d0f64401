package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shelfgate/shelfgate/internal/web/handlers"
	"github.com/shelfgate/shelfgate/internal/web/static"
)

func (s *Server) setupRoutes() {
	operationsHandler := handlers.NewOperationsHandler(s.orchestrator)
	statusHandler := handlers.NewStatusHandler(s.status, s.orchestrator)
	assetsHandler := handlers.NewAssetsHandler(s.store)
	identitiesHandler := handlers.NewIdentitiesHandler(s.store)
	transactionsHandler := handlers.NewTransactionsHandler(s.store)
	logsHandler := handlers.NewLogsHandler(s.store)
	adminHandler := handlers.NewAdminHandler(s.store, s.orchestrator)
	videoHandler := handlers.NewVideoHandler(s.camera)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Operation triggers (async, single slot)
		r.Post("/operations/register-asset", operationsHandler.RegisterAsset)
		r.Post("/operations/register-identity", operationsHandler.RegisterIdentity)
		r.Post("/operations/issue", operationsHandler.Issue)
		r.Post("/operations/return", operationsHandler.Return)

		// Session progress
		r.Get("/status", statusHandler.Get)

		// Catalog
		r.Get("/assets", assetsHandler.List)
		r.Delete("/assets/{id}", assetsHandler.Delete)
		r.Get("/identities", identitiesHandler.List)
		r.Delete("/identities/{id}", identitiesHandler.Delete)

		// Circulation records
		r.Get("/transactions", transactionsHandler.List)
		r.Get("/transactions/active", transactionsHandler.ListActive)
		r.Get("/logs", logsHandler.List)

		// Administration
		r.Post("/admin/purge", adminHandler.Purge)
	})

	// Live camera preview for the operator console
	s.router.Get("/video", videoHandler.Stream)

	// Operator console
	s.router.Handle("/*", http.FileServer(static.GetFileSystem()))
}
