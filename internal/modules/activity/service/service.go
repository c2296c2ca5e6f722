package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	activityDto "vigorfit.com/engagement/internal/modules/activity/dto"
	activityRepo "vigorfit.com/engagement/internal/modules/activity/repository"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

const (
	applyMaxAttempts  = 3
	applyInitialDelay = 100 * time.Millisecond

	maxHistoryLimit = 100
)

// AchievementEvaluator is notified after an event takes effect so unlock
// progress stays incremental instead of full-recompute.
type AchievementEvaluator interface {
	RecomputeForEventAsync(userID uuid.UUID, eventType string)
}

type ActivityService interface {
	Log(ctx context.Context, userID uuid.UUID, req activityDto.LogActivityRequest) (*entity.ActivityEvent, error)
	// Ingest records and aggregates a pre-built event (used by the session
	// tracker, which supplies deterministic event ids).
	Ingest(ctx context.Context, event *entity.ActivityEvent) error
	GetSummary(ctx context.Context, userID uuid.UUID, today time.Time) (*activityDto.ActivitySummaryResponse, error)
	GetHistory(ctx context.Context, userID uuid.UUID, page, limit int) (*activityDto.ActivityHistoryResponse, error)
}

type activityService struct {
	repo           activityRepo.ActivityRepository
	evaluator      AchievementEvaluator
	storageTimeout time.Duration
	now            func() time.Time
}

func NewActivityService(repo activityRepo.ActivityRepository, evaluator AchievementEvaluator, storageTimeout time.Duration) ActivityService {
	return &activityService{
		repo:           repo,
		evaluator:      evaluator,
		storageTimeout: storageTimeout,
		now:            time.Now,
	}
}

func (s *activityService) Log(ctx context.Context, userID uuid.UUID, req activityDto.LogActivityRequest) (*entity.ActivityEvent, error) {
	occurredOn := entity.Day(s.now())
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, apperror.Validation("date must be a calendar date in YYYY-MM-DD format")
		}
		occurredOn = entity.Day(parsed)
	}

	event := &entity.ActivityEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       req.Type,
		Value:      req.Value,
		Unit:       req.Unit,
		OccurredOn: occurredOn,
	}

	if err := s.Ingest(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *activityService) Ingest(ctx context.Context, event *entity.ActivityEvent) error {
	if err := s.validate(event); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	// Append-only write; a replay of the same event id is a no-op.
	if err := s.repo.CreateEvent(opCtx, event); err != nil {
		return err
	}

	// The fold must not drop data: transient failures retry under the same
	// dedup key, anything unresolved surfaces to the caller.
	if err := s.applyWithRetry(ctx, event); err != nil {
		return fmt.Errorf("event %s stored but not aggregated: %w", event.ID, err)
	}

	if s.evaluator != nil {
		s.evaluator.RecomputeForEventAsync(event.UserID, event.Type)
	}
	return nil
}

func (s *activityService) validate(event *entity.ActivityEvent) error {
	if !entity.IsValidActivityType(event.Type) {
		return apperror.Validation(fmt.Sprintf("unrecognized activity type %q", event.Type))
	}
	if event.Value <= 0 {
		return apperror.Validation("value must be greater than zero")
	}
	if entity.Day(event.OccurredOn).After(entity.Day(s.now())) {
		return apperror.Validation("date must not be in the future")
	}
	return nil
}

func (s *activityService) applyWithRetry(ctx context.Context, event *entity.ActivityEvent) error {
	delay := applyInitialDelay
	var err error
	for attempt := 1; attempt <= applyMaxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		_, err = s.repo.ApplyToSummary(opCtx, event)
		cancel()
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperror.ErrTransientStorage) || attempt == applyMaxAttempts {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func (s *activityService) GetSummary(ctx context.Context, userID uuid.UUID, today time.Time) (*activityDto.ActivitySummaryResponse, error) {
	today = entity.Day(today)
	weekStart := entity.ISOWeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, 7)

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	summaries, err := s.repo.GetDailySummaries(opCtx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	resp := &activityDto.ActivitySummaryResponse{
		Today:       activityDto.MetricMap{},
		Weekly:      activityDto.MetricMap{},
		WeeklyDaily: map[string]activityDto.MetricMap{},
	}

	// Weekly rollups are recomputed lazily from daily rows on every read;
	// raw events are never summed directly (single aggregation path).
	for _, cell := range summaries {
		day := entity.Day(cell.Date)
		dayKey := day.Format("2006-01-02")

		resp.Weekly[cell.Metric] += cell.Value
		if resp.WeeklyDaily[dayKey] == nil {
			resp.WeeklyDaily[dayKey] = activityDto.MetricMap{}
		}
		resp.WeeklyDaily[dayKey][cell.Metric] += cell.Value

		if day.Equal(today) {
			resp.Today[cell.Metric] += cell.Value
		}
	}

	return resp, nil
}

func (s *activityService) GetHistory(ctx context.Context, userID uuid.UUID, page, limit int) (*activityDto.ActivityHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	events, total, err := s.repo.ListEvents(opCtx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &activityDto.ActivityHistoryResponse{
		Data: events,
		Meta: activityDto.PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       limit,
		},
	}, nil
}
