package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	activityDto "vigorfit.com/engagement/internal/modules/activity/dto"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

type summaryKey struct {
	userID uuid.UUID
	date   time.Time
	metric string
}

// memoryRepo mirrors the Postgres repository's transactional semantics:
// the dedup marker and the increment succeed or fail together.
type memoryRepo struct {
	mu        sync.Mutex
	events    map[uuid.UUID]entity.ActivityEvent
	applied   map[uuid.UUID]bool
	summaries map[summaryKey]float64

	applyFailures int // forced transient failures before apply succeeds
	createErr     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		events:    map[uuid.UUID]entity.ActivityEvent{},
		applied:   map[uuid.UUID]bool{},
		summaries: map[summaryKey]float64{},
	}
}

func (r *memoryRepo) CreateEvent(ctx context.Context, event *entity.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.events[event.ID]; exists {
		return nil
	}
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now()
	}
	r.events[event.ID] = *event
	return nil
}

func (r *memoryRepo) ApplyToSummary(ctx context.Context, event *entity.ActivityEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyFailures > 0 {
		r.applyFailures--
		return false, apperror.WrapStorage(context.DeadlineExceeded)
	}
	if r.applied[event.ID] {
		return false, nil
	}
	r.applied[event.ID] = true
	key := summaryKey{userID: event.UserID, date: entity.Day(event.OccurredOn), metric: event.Type}
	r.summaries[key] += event.Value
	return true, nil
}

func (r *memoryRepo) GetDailySummaries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.DailySummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.DailySummary
	for key, value := range r.summaries {
		if key.userID != userID || key.date.Before(from) || !key.date.Before(to) {
			continue
		}
		out = append(out, entity.DailySummary{UserID: key.userID, Date: key.date, Metric: key.metric, Value: value})
	}
	return out, nil
}

func (r *memoryRepo) ListEvents(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.ActivityEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []entity.ActivityEvent
	for _, e := range r.events {
		if e.UserID == userID {
			all = append(all, e)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memoryRepo) SumDailyMetric(ctx context.Context, userID uuid.UUID, metric string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for key, value := range r.summaries {
		if key.userID == userID && key.metric == metric {
			total += value
		}
	}
	return total, nil
}

func (r *memoryRepo) CountEventsByType(ctx context.Context, userID uuid.UUID, eventType string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, e := range r.events {
		if e.UserID == userID && e.Type == eventType {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) DistinctActiveDates(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[time.Time]bool{}
	for _, e := range r.events {
		if e.UserID == userID && entity.IsStreakQualifying(e.Type) && !entity.Day(e.OccurredOn).Before(since) {
			seen[entity.Day(e.OccurredOn)] = true
		}
	}
	var dates []time.Time
	for d := range seen {
		dates = append(dates, d)
	}
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			if dates[j].Before(dates[i]) {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
	}
	return dates, nil
}

func newTestService(repo *memoryRepo, now time.Time) *activityService {
	return &activityService{
		repo:           repo,
		storageTimeout: time.Second,
		now:            func() time.Time { return now },
	}
}

func TestLogAccumulatesDailySummary(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) // a Wednesday
	svc := newTestService(repo, now)
	userID := uuid.New()

	_, err := svc.Log(context.Background(), userID, activityDto.LogActivityRequest{Type: entity.ActivitySteps, Value: 3000})
	require.NoError(t, err)
	_, err = svc.Log(context.Background(), userID, activityDto.LogActivityRequest{Type: entity.ActivitySteps, Value: 2000})
	require.NoError(t, err)

	summary, err := svc.GetSummary(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, summary.Today[entity.ActivitySteps])
	assert.Equal(t, 5000.0, summary.Weekly[entity.ActivitySteps])
	assert.Equal(t, 5000.0, summary.WeeklyDaily["2026-03-04"][entity.ActivitySteps])
}

func TestIngestSameEventTwiceCountsOnce(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	userID := uuid.New()

	event := &entity.ActivityEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       entity.ActivityCaloriesBurned,
		Value:      250,
		OccurredOn: entity.Day(now),
	}

	require.NoError(t, svc.Ingest(context.Background(), event))
	require.NoError(t, svc.Ingest(context.Background(), event))

	total, err := repo.SumDailyMetric(context.Background(), userID, entity.ActivityCaloriesBurned)
	require.NoError(t, err)
	assert.Equal(t, 250.0, total)

	count, err := repo.CountEventsByType(context.Background(), userID, entity.ActivityCaloriesBurned)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIngestOrderDoesNotMatter(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	userID := uuid.New()

	events := []*entity.ActivityEvent{
		{ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 1000, OccurredOn: entity.Day(now)},
		{ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 2500, OccurredOn: entity.Day(now)},
		{ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 400, OccurredOn: entity.Day(now)},
	}

	forward := newMemoryRepo()
	svc := newTestService(forward, now)
	for _, e := range events {
		copy := *e
		require.NoError(t, svc.Ingest(context.Background(), &copy))
	}

	reverse := newMemoryRepo()
	svc = newTestService(reverse, now)
	for i := len(events) - 1; i >= 0; i-- {
		copy := *events[i]
		require.NoError(t, svc.Ingest(context.Background(), &copy))
	}

	assert.Equal(t, forward.summaries, reverse.summaries)
}

func TestIngestRejectsInvalidEvents(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(newMemoryRepo(), now)
	userID := uuid.New()

	cases := []struct {
		name  string
		event entity.ActivityEvent
	}{
		{"unknown type", entity.ActivityEvent{ID: uuid.New(), UserID: userID, Type: "JUMPING_JACKS", Value: 10, OccurredOn: entity.Day(now)}},
		{"zero value", entity.ActivityEvent{ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 0, OccurredOn: entity.Day(now)}},
		{"negative value", entity.ActivityEvent{ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: -5, OccurredOn: entity.Day(now)}},
		{"future date", entity.ActivityEvent{ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 10, OccurredOn: entity.Day(now).AddDate(0, 0, 1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event := tc.event
			err := svc.Ingest(context.Background(), &event)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestIngestRetriesTransientApply(t *testing.T) {
	repo := newMemoryRepo()
	repo.applyFailures = 2
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	userID := uuid.New()

	event := &entity.ActivityEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       entity.ActivityWater,
		Value:      1,
		OccurredOn: entity.Day(now),
	}
	require.NoError(t, svc.Ingest(context.Background(), event))

	total, err := repo.SumDailyMetric(context.Background(), userID, entity.ActivityWater)
	require.NoError(t, err)
	assert.Equal(t, 1.0, total)
}

func TestIngestSurfacesExhaustedRetries(t *testing.T) {
	repo := newMemoryRepo()
	repo.applyFailures = 5 // more than the retry budget
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	event := &entity.ActivityEvent{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Type:       entity.ActivityWater,
		Value:      1,
		OccurredOn: entity.Day(now),
	}
	err := svc.Ingest(context.Background(), event)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrTransientStorage)
	assert.Contains(t, err.Error(), "stored but not aggregated")

	// The event itself is durably stored; only the fold failed.
	_, exists := repo.events[event.ID]
	assert.True(t, exists)
}

func TestIngestRetryIsSafeAfterPartialFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.applyFailures = 5
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	userID := uuid.New()

	event := &entity.ActivityEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       entity.ActivitySteps,
		Value:      500,
		OccurredOn: entity.Day(now),
	}
	require.Error(t, svc.Ingest(context.Background(), event))

	// The caller replays the same event; exactly one application results.
	replay := *event
	require.NoError(t, svc.Ingest(context.Background(), &replay))
	total, err := repo.SumDailyMetric(context.Background(), userID, entity.ActivitySteps)
	require.NoError(t, err)
	assert.Equal(t, 500.0, total)
}

func TestLogRejectsMalformedDate(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(newMemoryRepo(), now)

	_, err := svc.Log(context.Background(), uuid.New(), activityDto.LogActivityRequest{
		Type:  entity.ActivitySteps,
		Value: 100,
		Date:  "04-03-2026",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetSummaryExcludesOtherWeeks(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	userID := uuid.New()

	lastWeek := &entity.ActivityEvent{
		ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 9999,
		OccurredOn: entity.Day(now).AddDate(0, 0, -7),
	}
	require.NoError(t, svc.Ingest(context.Background(), lastWeek))

	monday := &entity.ActivityEvent{
		ID: uuid.New(), UserID: userID, Type: entity.ActivitySteps, Value: 1200,
		OccurredOn: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.Ingest(context.Background(), monday))

	summary, err := svc.GetSummary(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, summary.Weekly[entity.ActivitySteps])
	assert.Empty(t, summary.Today)
}

func TestGetHistoryPagination(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	userID := uuid.New()

	for i := 0; i < 25; i++ {
		event := &entity.ActivityEvent{
			ID: uuid.New(), UserID: userID, Type: entity.ActivityWater, Value: 1,
			OccurredOn: entity.Day(now),
		}
		require.NoError(t, svc.Ingest(context.Background(), event))
	}

	history, err := svc.GetHistory(context.Background(), userID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history.Data, 10)
	assert.Equal(t, int64(25), history.Meta.TotalItems)
	assert.Equal(t, 3, history.Meta.TotalPages)

	last, err := svc.GetHistory(context.Background(), userID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, last.Data, 5)
}

func TestIngestPropagatesCreateError(t *testing.T) {
	repo := newMemoryRepo()
	repo.createErr = errors.New("connection refused")
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)

	event := &entity.ActivityEvent{
		ID: uuid.New(), UserID: uuid.New(), Type: entity.ActivitySteps, Value: 10,
		OccurredOn: entity.Day(now),
	}
	assert.Error(t, svc.Ingest(context.Background(), event))
}
