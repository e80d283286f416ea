package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/odizinne/gtacompta-storage/internal/middleware"
	"go.uber.org/zap"
)

// NewRouter constructs the HTTP handler serving the storage API.
//
// Middleware chain (applied in order):
//  1. WithRequestLogging — logs every request with its outcome
//  2. ConnectionClose    — no keep-alive, one request per connection
//  3. CheckProtocolVersion — 400 on version mismatch, before any auth
//  4. ServerAuth — shared X-Password secret
//  5. UserAuth   — per-user credentials, puts the username in context
//
// Authentication runs before routing, so an unknown path without valid
// credentials is a 401, not a 404.
//
// Routes:
//
//	GET  /api/test           → StorageHandler.Test
//	GET  /api/status         → StorageHandler.Status
//	GET  /api/load/<name>    → StorageHandler.Load
//	POST /api/save/<name>    → StorageHandler.Save
func NewRouter(
	storage *StorageHandler,
	users middleware.Authenticator,
	serverPassword string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.ConnectionClose)
	r.Use(middleware.CheckProtocolVersion)
	r.Use(middleware.ServerAuth(serverPassword))
	r.Use(middleware.UserAuth(users))

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", storage.Test)
		r.Get("/status", storage.Status)
		r.Get("/load/*", storage.Load)
		r.Post("/save/*", storage.Save)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteJSON(w, http.StatusNotFound, map[string]any{"error": "Not found"})
	})

	return r
}
