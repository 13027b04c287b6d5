package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/document-tracking/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check and the API status check used by the
// web client.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api", handler.APIStatus)
}

// RegisterAuth registers the account endpoints under /auth.  limiter guards
// the whole group against credential stuffing and reset-mail flooding; pass
// nil to register the routes without it.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if limiter != nil {
		mw = append(mw, limiter)
	}
	g := e.Group("/auth", mw...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/forgot-password", a.ForgotPassword)
	// The token travels in the path, exactly as it appears in the mailed link.
	g.POST("/reset-password/:token", a.ResetPassword)
}
