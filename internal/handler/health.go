package handler // declare the package name; contains HTTP handlers

import (
    "errors"
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// APIStatus answers GET /api, which the web client checks on start-up.
func APIStatus(c echo.Context) error {
    return c.String(http.StatusOK, "API is running")
}

// ErrorHandler renders errors that escape a handler (unknown route, wrong
// method, recovered panic) as {"error": msg}.  Internal details of
// non-HTTP errors are logged, not returned.
func ErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    code := http.StatusInternalServerError
    msg := msgServerError
    var he *echo.HTTPError
    if errors.As(err, &he) {
        code = he.Code
        if m, ok := he.Message.(string); ok {
            msg = m
        } else {
            msg = http.StatusText(code)
        }
    } else {
        c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
    }

    if c.Request().Method == http.MethodHead {
        err = c.NoContent(code)
    } else {
        err = c.JSON(code, echo.Map{"error": msg})
    }
    if err != nil {
        c.Logger().Error(err)
    }
}
