package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/middleware"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
	"github.com/AhmedAbdelmoaty/Assessment/internal/utils"
)

type IntakeHandler struct {
	Service *service.IntakeService
}

func NewIntakeHandler(s *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{Service: s}
}

// Next advances the intake interview by one step.
func (h *IntakeHandler) Next(c *gin.Context) {
	var req struct {
		SessionID string  `json:"sessionId"`
		Lang      string  `json:"lang"`
		Answer    *string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	userID := middleware.UserID(c)
	view, err := h.Service.Next(c.Request.Context(), userID, req.SessionID, req.Lang, req.Answer)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
