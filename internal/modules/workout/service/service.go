package workout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"vigorfit.com/engagement/internal/entity"
	activityService "vigorfit.com/engagement/internal/modules/activity/service"
	workoutDto "vigorfit.com/engagement/internal/modules/workout/dto"
	workoutRepo "vigorfit.com/engagement/internal/modules/workout/repository"
	"vigorfit.com/engagement/pkg/apperror"
)

type SessionService interface {
	Start(ctx context.Context, userID uuid.UUID, req workoutDto.StartSessionRequest) (*entity.WorkoutSession, error)
	// Complete is idempotent: completing an already COMPLETED session is
	// a no-op success, and a retried completion after a failure can never
	// double-count.
	Complete(ctx context.Context, userID, sessionID uuid.UUID, req workoutDto.CompleteSessionRequest) (*entity.WorkoutSession, error)
	AbandonStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type sessionService struct {
	repo            workoutRepo.SessionRepository
	activityService activityService.ActivityService
	redisClient     *redis.Client
	guardTTL        time.Duration
	storageTimeout  time.Duration
	now             func() time.Time
}

func NewSessionService(repo workoutRepo.SessionRepository, activitySvc activityService.ActivityService, redisClient *redis.Client, guardTTL, storageTimeout time.Duration) SessionService {
	return &sessionService{
		repo:            repo,
		activityService: activitySvc,
		redisClient:     redisClient,
		guardTTL:        guardTTL,
		storageTimeout:  storageTimeout,
		now:             time.Now,
	}
}

func guardKey(userID uuid.UUID) string {
	return fmt.Sprintf("active_session:user:%s", userID.String())
}

// acquireGuard is a Redis fast path rejecting concurrent starts before
// they hit Postgres. The DB open-session check stays authoritative.
func (s *sessionService) acquireGuard(ctx context.Context, userID uuid.UUID) (bool, error) {
	if s.redisClient == nil {
		return true, nil
	}
	wasSet, err := s.redisClient.SetNX(ctx, guardKey(userID), "locked", s.guardTTL).Result()
	if err != nil {
		// Redis being down must not block workouts; fall through to the
		// DB check.
		log.Printf("session guard check failed: %v", err)
		return true, nil
	}
	return wasSet, nil
}

func (s *sessionService) releaseGuard(ctx context.Context, userID uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, guardKey(userID)).Err(); err != nil {
		log.Printf("session guard release failed: %v", err)
	}
}

func (s *sessionService) Start(ctx context.Context, userID uuid.UUID, req workoutDto.StartSessionRequest) (*entity.WorkoutSession, error) {
	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		return nil, apperror.Validation("video_id must be a valid UUID")
	}

	acquired, err := s.acquireGuard(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperror.Conflict("a workout session is already in progress")
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	open, err := s.repo.HasOpenSession(opCtx, userID)
	if err != nil {
		s.releaseGuard(ctx, userID)
		return nil, err
	}
	if open {
		return nil, apperror.Conflict("a workout session is already in progress")
	}

	session := &entity.WorkoutSession{
		ID:        uuid.New(),
		UserID:    userID,
		VideoID:   videoID,
		State:     entity.SessionStarting,
		StartedAt: s.now(),
	}
	if err := s.repo.Create(opCtx, session); err != nil {
		s.releaseGuard(ctx, userID)
		return nil, err
	}

	// STARTING -> ACTIVE; on failure no partial session may persist.
	ok, err := s.repo.TransitionState(opCtx, session.ID, entity.SessionStarting, entity.SessionActive)
	if err != nil || !ok {
		if delErr := s.repo.Delete(context.Background(), session.ID); delErr != nil {
			log.Printf("failed to clean up session %s after start failure: %v", session.ID, delErr)
		}
		s.releaseGuard(ctx, userID)
		if err != nil {
			return nil, err
		}
		return nil, apperror.ErrInternal
	}

	session.State = entity.SessionActive
	return session, nil
}

func (s *sessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID, req workoutDto.CompleteSessionRequest) (*entity.WorkoutSession, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	session, err := s.repo.FindByID(opCtx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, apperror.ErrNotFound
	}

	switch session.State {
	case entity.SessionCompleted:
		// Already terminal; retried completion is a no-op success.
		return session, nil
	case entity.SessionAbandoned:
		return nil, apperror.Conflict("session was abandoned and can no longer be completed")
	case entity.SessionActive:
		ok, err := s.repo.TransitionState(opCtx, sessionID, entity.SessionActive, entity.SessionCompleting)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Lost a race with another transition; re-read and let the
			// caller retry against the new state.
			return nil, apperror.Conflict("session state changed, retry completion")
		}
	case entity.SessionCompleting:
		// Previous completion attempt failed midway; carry on. The
		// deterministic event ids below make re-emission harmless.
	default:
		return nil, apperror.Conflict(fmt.Sprintf("session in state %s cannot be completed", session.State))
	}

	// The only edge that emits activity events. Event ids derive from the
	// session id, so the aggregator's dedup marker absorbs any replay.
	if err := s.emitCompletionEvents(ctx, session, req.CaloriesBurned); err != nil {
		s.revertToActive(sessionID)
		return nil, err
	}

	completedAt := s.now()
	ok, err := s.repo.MarkCompleted(opCtx, sessionID, req.DurationSeconds, req.CaloriesBurned, completedAt)
	if err != nil {
		s.revertToActive(sessionID)
		return nil, err
	}
	if !ok {
		// Someone else finalized it between our transition and update.
		return s.repo.FindByID(opCtx, sessionID)
	}

	s.releaseGuard(ctx, session.UserID)

	session.State = entity.SessionCompleted
	session.CompletedAt = &completedAt
	session.ReportedDurationSeconds = req.DurationSeconds
	session.ReportedCalories = req.CaloriesBurned
	return session, nil
}

func (s *sessionService) emitCompletionEvents(ctx context.Context, session *entity.WorkoutSession, calories float64) error {
	occurredOn := entity.Day(s.now())

	completed := &entity.ActivityEvent{
		ID:         uuid.NewSHA1(session.ID, []byte("workout_completed")),
		UserID:     session.UserID,
		Type:       entity.ActivityWorkoutCompleted,
		Value:      1,
		OccurredOn: occurredOn,
	}
	if err := s.activityService.Ingest(ctx, completed); err != nil {
		return fmt.Errorf("emit workout completion: %w", err)
	}

	if calories > 0 {
		burned := &entity.ActivityEvent{
			ID:         uuid.NewSHA1(session.ID, []byte("calories_burned")),
			UserID:     session.UserID,
			Type:       entity.ActivityCaloriesBurned,
			Value:      calories,
			OccurredOn: occurredOn,
		}
		if err := s.activityService.Ingest(ctx, burned); err != nil {
			return fmt.Errorf("emit calories burned: %w", err)
		}
	}
	return nil
}

// revertToActive puts a failed completion back into ACTIVE so the caller
// can retry without starting over.
func (s *sessionService) revertToActive(sessionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), s.storageTimeout)
	defer cancel()
	if _, err := s.repo.TransitionState(ctx, sessionID, entity.SessionCompleting, entity.SessionActive); err != nil {
		log.Printf("failed to revert session %s to active: %v", sessionID, err)
	}
}

func (s *sessionService) AbandonStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	return s.repo.AbandonStale(opCtx, s.now().Add(-maxAge))
}
