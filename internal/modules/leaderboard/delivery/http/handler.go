package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	leaderboardService "vigorfit.com/engagement/internal/modules/leaderboard/service"
	"vigorfit.com/engagement/pkg/response"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	period := c.DefaultQuery("period", leaderboardService.PeriodWeekly)
	category := c.DefaultQuery("category", leaderboardService.CategoryWorkouts)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), userID, period, category, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, leaderboard)
}
