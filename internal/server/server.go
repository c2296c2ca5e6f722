package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"vigorfit.com/engagement/internal/config"
	"vigorfit.com/engagement/internal/jobs"
	"vigorfit.com/engagement/internal/middleware"

	achievementHttp "vigorfit.com/engagement/internal/modules/achievement/delivery/http"
	achievementRepo "vigorfit.com/engagement/internal/modules/achievement/repository"
	achievementService "vigorfit.com/engagement/internal/modules/achievement/service"

	activityHttp "vigorfit.com/engagement/internal/modules/activity/delivery/http"
	activityRepo "vigorfit.com/engagement/internal/modules/activity/repository"
	activityService "vigorfit.com/engagement/internal/modules/activity/service"

	leaderboardHttp "vigorfit.com/engagement/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "vigorfit.com/engagement/internal/modules/leaderboard/repository"
	leaderboardService "vigorfit.com/engagement/internal/modules/leaderboard/service"

	notifHttp "vigorfit.com/engagement/internal/modules/notification/delivery/http"
	notifRepo "vigorfit.com/engagement/internal/modules/notification/repository"
	notifService "vigorfit.com/engagement/internal/modules/notification/service"

	userRepo "vigorfit.com/engagement/internal/modules/user/repository"

	workoutHttp "vigorfit.com/engagement/internal/modules/workout/delivery/http"
	workoutRepo "vigorfit.com/engagement/internal/modules/workout/repository"
	workoutService "vigorfit.com/engagement/internal/modules/workout/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)

	// Activity module (event store + aggregator)
	activityRepository := activityRepo.NewActivityRepository(db)

	// Notification module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, redisClient)

	// Achievement module
	achievementRepository := achievementRepo.NewAchievementRepository(db)
	achievementSvc, err := achievementService.NewAchievementService(
		achievementRepository,
		activityRepository,
		notificationSvc,
		achievementService.DefaultCatalog(),
		cfg.StorageTimeout,
	)
	if err != nil {
		log.Fatalf("failed to load achievement catalog: %v", err)
	}
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc)

	activitySvc := activityService.NewActivityService(activityRepository, achievementSvc, cfg.StorageTimeout)
	activityHandler := activityHttp.NewActivityHandler(activitySvc)

	// Leaderboard module
	leaderboardRepository := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepository, users, redisClient, cfg.LeaderboardCacheTTL)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	// Workout session tracker
	sessionRepository := workoutRepo.NewSessionRepository(db)
	sessionSvc := workoutService.NewSessionService(sessionRepository, activitySvc, redisClient, cfg.SessionMaxAge, cfg.StorageTimeout)
	sessionHandler := workoutHttp.NewSessionHandler(sessionSvc)

	// Background jobs
	scheduler := jobs.NewScheduler()
	scheduler.Register(&jobs.LeaderboardWarmJob{Service: leaderboardSvc})
	scheduler.Register(&jobs.SessionSweepJob{Service: sessionSvc, MaxAge: cfg.SessionMaxAge})
	scheduler.Start()

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"status": "ok"}})
	})

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		// Activity routes
		api.POST("/activity/log", activityHandler.LogActivity)
		api.GET("/activity/summary", activityHandler.GetSummary)
		api.GET("/activity/history", activityHandler.GetHistory)

		// Leaderboard routes
		api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

		// Achievement routes
		api.GET("/achievements", achievementHandler.GetAchievements)

		// Workout session routes
		api.POST("/workouts/sessions", sessionHandler.StartSession)
		api.PATCH("/workouts/sessions/:id/complete", sessionHandler.CompleteSession)

		// Notification routes
		api.GET("/notifications", notificationHandler.GetNotifications)
		api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		api.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		api.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		api.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
