package handler

import (
	"net/http"
	"strconv"

	"telemed/internal/docstore"
	"telemed/internal/middleware"
	"telemed/internal/model"
	"telemed/internal/service"

	"github.com/gin-gonic/gin"
)

// VisitHandler exposes the visit lifecycle.
type VisitHandler struct {
	visits *service.VisitService
	store  docstore.Store
}

// NewVisitHandler creates a new visit handler.
func NewVisitHandler(visits *service.VisitService, store docstore.Store) *VisitHandler {
	return &VisitHandler{visits: visits, store: store}
}

// Create opens (or reuses) a visit for the caller.
// @Router /visits [post]
func (h *VisitHandler) Create(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.NewErrorResponse("Unauthenticated", ""))
		return
	}
	skipDedup := false
	if raw := c.Query("ignoreUnfinishedVisits"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest,
				model.NewErrorResponse("Invalid ignoreUnfinishedVisits value", ""))
			return
		}
		skipDedup = v
	}

	caller := service.NewIdentityContext(identity, h.store)
	res, err := h.visits.Create(c.Request.Context(), caller, skipDedup)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Existing visit returned"
	if res.Created {
		msg = "Visit created"
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse(msg, res))
}

// Finish marks a waiting-room entry and its visit finished.
// @Router /visits/finish [post]
func (h *VisitHandler) Finish(c *gin.Context) {
	roomID := c.Query("roomId")
	waitingUserID := c.Query("waitingUserId")
	// Same grammar the core enforces; rejecting here keeps garbage out of
	// the store entirely.
	if !docstore.ValidDocID(roomID) || !docstore.ValidDocID(waitingUserID) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("Invalid room or waiting user id", ""))
		return
	}
	if err := h.visits.Finish(c.Request.Context(), roomID, waitingUserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.NewSuccessResponse("Visit finished", nil))
}
