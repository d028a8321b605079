package handler

import (
	"net/http"

	"telemed/internal/middleware"
	"telemed/internal/model"
	"telemed/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes profile registration and account administration.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterMe registers the caller as an active patient.
// @Router /users/register/me [post]
func (h *UserHandler) RegisterMe(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("Unauthenticated", ""))
		return
	}
	var req model.RegisterMyselfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
		return
	}
	res, err := h.users.RegisterSelf(c.Request.Context(), identity, req.FirstName, req.LastName)
	if err != nil {
		respondError(c, err)
		return
	}
	// The role claim changed; the client must pick up a fresh token.
	c.Header("X-Force-Refresh-Token", "true")
	c.JSON(http.StatusOK, model.NewSuccessResponse("Registered", res))
}

// RegisterByUserID registers a profile for an existing account (admin).
// @Router /users/register/userid [post]
func (h *UserHandler) RegisterByUserID(c *gin.Context) {
	uid := c.Query("userid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("userid is required", ""))
		return
	}
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
		return
	}
	res, err := h.users.RegisterByUserID(c.Request.Context(), uid, &user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Registered", res))
}

// RegisterByEmail registers a profile for the account holding the email
// (admin).
// @Router /users/register/email [post]
func (h *UserHandler) RegisterByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("email is required", ""))
		return
	}
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
		return
	}
	res, err := h.users.RegisterByEmail(c.Request.Context(), email, &user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Registered", res))
}

// Create creates an auth account together with its profile (admin).
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
		return
	}
	res, err := h.users.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("User created", res))
}

// UpdateMe patches the caller's profile names.
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("Unauthenticated", ""))
		return
	}
	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error(), ""))
		return
	}
	if err := h.users.UpdateNames(c.Request.Context(), identity.SubjectID, req.FirstName, req.LastName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Profile updated",
		gin.H{"userId": identity.SubjectID}))
}

// GetRole reports the role claim of an account.
// @Router /users/:userid/role [get]
func (h *UserHandler) GetRole(c *gin.Context) {
	res, err := h.users.GetRole(c.Request.Context(), c.Param("userid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Role", res))
}

// SetRole replaces the role claim of an account (admin).
// @Router /users/:userid/role [patch]
func (h *UserHandler) SetRole(c *gin.Context) {
	role, err := model.UserRoles.Decode(c.Query("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("Invalid role", ""))
		return
	}
	res, err := h.users.SetRole(c.Request.Context(), c.Param("userid"), role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Role updated", res))
}

// Deactivate logically deletes a user: profile InActive, account disabled
// (admin).
// @Router /users/:userid [delete]
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.users.Deactivate(c.Request.Context(), c.Param("userid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("User deactivated", nil))
}
