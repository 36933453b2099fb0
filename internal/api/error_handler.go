package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Passes echo's own errors (bind failures, 404 from the router) through
//     with their status.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
//
// Carrier failures never reach this handler — they are data, not errors, and
// arrive as error-flagged rows in the quote response.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)})
			return
		}

		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")

		_ = c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
