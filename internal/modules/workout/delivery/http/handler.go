package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	workoutDto "vigorfit.com/engagement/internal/modules/workout/dto"
	workoutService "vigorfit.com/engagement/internal/modules/workout/service"
	"vigorfit.com/engagement/pkg/apperror"
	"vigorfit.com/engagement/pkg/response"
	"vigorfit.com/engagement/pkg/validator"
)

type SessionHandler struct {
	service workoutService.SessionService
}

func NewSessionHandler(service workoutService.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req workoutDto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	session, err := h.service.Start(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, session)
}

func (h *SessionHandler) CompleteSession(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid session id"))
		return
	}

	var req workoutDto.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	session, err := h.service.Complete(c.Request.Context(), userID, sessionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, session)
}
