package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/document-tracking/internal/utils"
)

// Context keys under which JWTAuth stores the verified identity.
const (
    CtxUsername = "username"
    CtxEmail    = "email"
    CtxRole     = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the username, email and role claims in the request context.
// Handlers read them back with c.Get(CtxRole) etc.; when present they take
// precedence over anything the client put in the request.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "), time.Now())
            if err != nil || claims.Role == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(CtxUsername, claims.Subject)
            c.Set(CtxEmail, claims.Email)
            c.Set(CtxRole, claims.Role)
            return next(c)
        }
    }
}
