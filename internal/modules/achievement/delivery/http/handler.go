package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	achievementService "vigorfit.com/engagement/internal/modules/achievement/service"
	"vigorfit.com/engagement/pkg/response"
)

type AchievementHandler struct {
	service achievementService.AchievementService
}

func NewAchievementHandler(service achievementService.AchievementService) *AchievementHandler {
	return &AchievementHandler{service: service}
}

func (h *AchievementHandler) GetAchievements(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	achievements, err := h.service.GetAchievements(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, achievements)
}
