package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	activityDto "vigorfit.com/engagement/internal/modules/activity/dto"
	activityService "vigorfit.com/engagement/internal/modules/activity/service"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
	"vigorfit.com/engagement/pkg/response"
	"vigorfit.com/engagement/pkg/validator"
)

type ActivityHandler struct {
	service activityService.ActivityService
}

func NewActivityHandler(service activityService.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) LogActivity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req activityDto.LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	event, err := h.service.Log(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, activityDto.LogActivityResponse{EventID: event.ID})
}

func (h *ActivityHandler) GetSummary(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Caller may pin "today" to its own locale; defaults to server date.
	today := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			response.Error(c, apperror.Validation("date must be a calendar date in YYYY-MM-DD format"))
			return
		}
		today = parsed
	}

	summary, err := h.service.GetSummary(c.Request.Context(), userID, entity.Day(today))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

func (h *ActivityHandler) GetHistory(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.service.GetHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, history)
}
