package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
	"github.com/AhmedAbdelmoaty/Assessment/internal/utils"
)

// writeServiceError maps service and engine errors to HTTP responses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		utils.NotFoundResponse(c, "Session not found")
	case errors.Is(err, service.ErrWrongPhase):
		utils.BadRequestResponse(c, "Request does not match the session phase")
	case errors.Is(err, service.ErrTeachingInactive):
		utils.BadRequestResponse(c, "Teaching is not active right now")
	case errors.Is(err, service.ErrEmptyMessage):
		utils.BadRequestResponse(c, "Empty message")
	case errors.Is(err, service.ErrNoTopics):
		utils.BadRequestResponse(c, "No topics to teach right now")
	case errors.Is(err, assessment.ErrNoActiveQuestion):
		utils.BadRequestResponse(c, "No active question")
	case errors.Is(err, assessment.ErrInvalidChoice):
		utils.BadRequestResponse(c, "Choice index out of range")
	case errors.Is(err, assessment.ErrInvalidQuestionSchema):
		utils.ErrorResponse(c, http.StatusBadGateway, "Invalid question format from model", err)
	default:
		utils.InternalErrorResponse(c, "Internal server error", err)
	}
}
