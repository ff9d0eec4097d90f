package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/middleware"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
)

type SessionHandler struct {
	Service *service.SessionService
}

func NewSessionHandler(s *service.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// GetCurrent returns the user's current session with its message log,
// creating a fresh session when none is active.
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	userID := middleware.UserID(c)
	view, err := h.Service.Current(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": gin.H{
			"id":          view.Session.ID,
			"status":      view.Session.Status,
			"intake_done": view.Session.IntakeDone,
			"started_at":  view.Session.StartedAt,
			"finished_at": view.Session.FinishedAt,
			"state":       view.State,
		},
		"messages": view.Messages,
	})
}

// StartNew ends the active session, if any, and starts a fresh one.
func (h *SessionHandler) StartNew(c *gin.Context) {
	var req struct {
		Lang string `json:"lang"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := middleware.UserID(c)
	sess, err := h.Service.StartNew(c.Request.Context(), userID, req.Lang)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session": gin.H{
			"id":          sess.ID,
			"status":      sess.Status,
			"intake_done": sess.IntakeDone,
			"started_at":  sess.StartedAt,
		},
	})
}

// History lists the user's sessions, newest first.
func (h *SessionHandler) History(c *gin.Context) {
	userID := middleware.UserID(c)
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}
	sessions, err := h.Service.History(c.Request.Context(), userID, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
