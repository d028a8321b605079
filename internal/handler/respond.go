package handler

import (
	"errors"
	"net/http"

	"telemed/internal/auth"
	"telemed/internal/docstore"
	"telemed/internal/model"
	"telemed/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service and collaborator errors to HTTP statuses. An
// indeterminate outcome maps to 204 so the client knows to re-query rather
// than treat the call as failed or succeeded.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrIndeterminate):
		c.Status(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrAccountDisabled):
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAccountDisabled):
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("Invalid credentials", ""))
	case errors.Is(err, service.ErrNotRegistered),
		errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, model.NewErrorResponse(err.Error(), ""))
	case errors.Is(err, service.ErrAlreadyRegistered),
		errors.Is(err, service.ErrConcurrentModification),
		errors.Is(err, auth.ErrAccountExists),
		errors.Is(err, docstore.ErrAlreadyExists):
		c.JSON(http.StatusConflict, model.NewErrorResponse(err.Error(), ""))
	default:
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("Internal error", err.Error()))
	}
}
