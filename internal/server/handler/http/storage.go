// Package http provides the HTTP handlers of the storage API:
// connection test, server status, and collection load/save.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/odizinne/gtacompta-storage/internal/middleware"
	"github.com/odizinne/gtacompta-storage/internal/models"
)

// CollectionService defines the collection operations required by the
// storage handlers.
type CollectionService interface {
	// Load returns the records of a collection, empty if absent.
	Load(ctx context.Context, collection string) []models.Record
	// Save replaces the whole collection; false signals a storage failure.
	Save(ctx context.Context, collection string, records []models.Record) bool
	// Count returns the number of stored collections.
	Count(ctx context.Context) int
}

// PermissionChecker exposes the read-only flag of authenticated users.
type PermissionChecker interface {
	IsReadOnly(username string) bool
}

// StorageHandler handles the /api endpoints of the storage protocol.
type StorageHandler struct {
	Collections CollectionService
	Users       PermissionChecker
	// DataDir is reported by /api/status.
	DataDir string
	// Started is the server start time, used for the uptime field.
	Started time.Time
}

// Test handles GET /api/test. It only runs for authenticated users, so
// reaching it means the connection works; the response echoes the
// caller's identity and permissions.
func (h *StorageHandler) Test(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsernameFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Connection successful",
		"server":          models.ServerName,
		"protocolVersion": models.ProtocolVersion,
		"sslEnabled":      false,
		"timestamp":       time.Now().Format(time.RFC3339),
		"username":        username,
		"readonly":        h.Users.IsReadOnly(username),
	})
}

// Status handles GET /api/status with server metadata and the number of
// stored collections.
func (h *StorageHandler) Status(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsernameFromContext(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"server":          models.ServerProduct,
		"version":         models.ServerVersion,
		"protocolVersion": models.ProtocolVersion,
		"sslEnabled":      false,
		"uptime":          time.Since(h.Started).Round(time.Second).String(),
		"dataDirectory":   h.DataDir,
		"username":        username,
		"readonly":        h.Users.IsReadOnly(username),
		"collections":     h.Collections.Count(r.Context()),
	})
}

// Load handles GET /api/load/<collection>. It always answers 200; a
// collection that does not exist loads as an empty array.
func (h *StorageHandler) Load(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsernameFromContext(r.Context())
	collection := chi.URLParam(r, "*")

	records := h.Collections.Load(r.Context(), collection)
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"data":     records,
		"readonly": h.Users.IsReadOnly(username),
		"username": username,
	})
}

// Save handles POST /api/save/<collection>. Read-only users get 403
// before anything is parsed. A malformed body is 400; a storage failure
// is a 200 with success=false, since the request itself was well-formed.
func (h *StorageHandler) Save(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsernameFromContext(r.Context())
	if h.Users.IsReadOnly(username) {
		middleware.WriteJSON(w, http.StatusForbidden, map[string]any{
			"error": "Forbidden - Read-only user cannot save data",
		})
		return
	}

	collection := chi.URLParam(r, "*")

	var req struct {
		Data []models.Record `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error": "Invalid JSON",
		})
		return
	}

	if ok := h.Collections.Save(r.Context(), collection, req.Data); !ok {
		middleware.WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"error":   "Failed to save data",
		})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
