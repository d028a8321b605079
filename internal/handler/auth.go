package handler

import (
	"net/http"

	"telemed/internal/auth"
	"telemed/internal/model"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes token issuance.
type AuthHandler struct {
	provider auth.Provider
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(provider auth.Provider) *AuthHandler {
	return &AuthHandler{provider: provider}
}

// Login authenticates email/password and returns a bearer token.
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
		return
	}
	token, err := h.provider.IssueToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Authenticated", model.LoginResponse{Token: token}))
}
