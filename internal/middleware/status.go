package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// resolveStatus returns the status the client will see. When a handler returns
// an *echo.HTTPError the response is not written yet; Echo's central error
// handler writes it later, so the code is taken from the error instead.
func resolveStatus(c echo.Context, err error) int {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		if !c.Response().Committed {
			return http.StatusInternalServerError
		}
	}
	return c.Response().Status
}
