package middleware

import "github.com/labstack/echo/v4"

// currentUser names the caller for rate-limit keys: the verified username
// when JWTAuth ran before, otherwise "anon".
func currentUser(c echo.Context) string {
    if s, ok := c.Get(CtxUsername).(string); ok && s != "" {
        return s
    }
    return "anon"
}
