package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/middleware"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
)

type ReportHandler struct {
	Service *service.ReportService
	Store   service.ResultStore
}

func NewReportHandler(s *service.ReportService, store service.ResultStore) *ReportHandler {
	return &ReportHandler{Service: s, Store: store}
}

// Build returns the session's final report, computing it on first call and
// replaying the stored report afterwards.
func (h *ReportHandler) Build(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := middleware.UserID(c)
	report, err := h.Service.Build(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Results lists the user's archived assessment results for the dashboard.
func (h *ReportHandler) Results(c *gin.Context) {
	userID := middleware.UserID(c)
	results, err := h.Store.FindByUser(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
