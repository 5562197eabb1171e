// Package handlers implements the HTTP route handlers of the build server.
package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier/internal/builder"
	"github.com/atelierhq/atelier/internal/history"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

func writeError(c echo.Context, err error) error {
	var verr *builder.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: verr.Error(), Violations: verr.Violations})
	case errors.Is(err, builder.ErrBusy), errors.Is(err, builder.ErrStage):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, builder.ErrNotFound), errors.Is(err, history.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
