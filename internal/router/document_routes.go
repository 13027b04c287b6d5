package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/document-tracking/internal/config"
	"github.com/iliyamo/document-tracking/internal/handler"
	"github.com/iliyamo/document-tracking/internal/middleware"
	"github.com/iliyamo/document-tracking/internal/model"
)

// RegisterDocuments registers document submission, search and triage.
//
// In client mode the routes are open and the handlers trust the role and
// email sent with each request.  In token mode every route requires a
// bearer token; status changes, deletion and stats additionally require the
// admin role.  cache wraps the search route and may be nil.
func RegisterDocuments(e *echo.Echo, h *handler.DocumentHandler, cfg config.Config, cache echo.MiddlewareFunc) {
	var (
		auth  []echo.MiddlewareFunc
		admin []echo.MiddlewareFunc
	)
	if cfg.TokenMode() {
		auth = []echo.MiddlewareFunc{middleware.JWTAuth(cfg.JWTSecret)}
		admin = append(auth, middleware.RequireRole(model.RoleAdmin))
	}
	// Routes are registered one by one rather than on a group: a group with
	// middleware at the root prefix would also catch unknown paths and the
	// static web client.
	e.POST("/new-document", h.Create, auth...)

	// The cache runs after JWTAuth so the verified identity is part of the key.
	search := auth
	if cache != nil {
		search = append(append([]echo.MiddlewareFunc{}, auth...), cache)
	}
	e.GET("/search-documents", h.Search, search...)

	e.GET("/documents/stats", h.Stats, admin...)
	e.PUT("/documents/:id", h.UpdateStatus, admin...)
	e.DELETE("/documents/:id", h.Delete, admin...)
}
