package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"vigorfit.com/engagement/internal/entity"
	leaderboardDto "vigorfit.com/engagement/internal/modules/leaderboard/dto"
	leaderboardRepo "vigorfit.com/engagement/internal/modules/leaderboard/repository"
	userRepo "vigorfit.com/engagement/internal/modules/user/repository"
	"vigorfit.com/engagement/pkg/apperror"
)

const (
	DefaultLimit = 50
	maxLimit     = 100

	// Streaks longer than this lookback are treated as capped; bounded so
	// the population query does not scan the full event history.
	streakLookbackDays = 400
)

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, userID uuid.UUID, period, category string, limit int) (*leaderboardDto.LeaderboardResponse, error)
	// WarmCache precomputes the top entries for every (period, category)
	// pair; run on a schedule, never on the request path.
	WarmCache(ctx context.Context) error
}

type leaderboardService struct {
	repo        leaderboardRepo.LeaderboardRepository
	users       userRepo.UserRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, users userRepo.UserRepository, redisClient *redis.Client, cacheTTL time.Duration) LeaderboardService {
	return &leaderboardService{
		repo:        repo,
		users:       users,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, userID uuid.UUID, period, category string, limit int) (*leaderboardDto.LeaderboardResponse, error) {
	if err := validatePeriodCategory(period, category); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	entries, err := s.topEntries(ctx, period, category, limit)
	if err != nil {
		return nil, err
	}

	resp := &leaderboardDto.LeaderboardResponse{
		Entries:  entries,
		Period:   period,
		Category: category,
	}

	// My-rank resolution: reuse the entry when the caller is in the top
	// slice, otherwise count users ahead instead of sorting everyone.
	for i := range entries {
		if entries[i].UserID == userID {
			resp.MyRank = &entries[i]
			return resp, nil
		}
	}

	myRank, err := s.resolveMyRank(ctx, userID, period, category)
	if err != nil {
		return nil, err
	}
	resp.MyRank = myRank
	return resp, nil
}

func validatePeriodCategory(period, category string) error {
	switch period {
	case PeriodWeekly, PeriodMonthly, PeriodAllTime:
	default:
		return apperror.Validation(fmt.Sprintf("unknown period %q", period))
	}
	switch category {
	case CategoryWorkouts, CategoryCalories, CategoryStreak:
	default:
		return apperror.Validation(fmt.Sprintf("unknown category %q", category))
	}
	return nil
}

func (s *leaderboardService) topEntries(ctx context.Context, period, category string, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	if cached, ok := s.readCache(ctx, period, category); ok {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	entries, err := s.computeTop(ctx, period, category, maxLimit)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, period, category, entries)

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *leaderboardService) computeTop(ctx context.Context, period, category string, limit int) ([]leaderboardDto.LeaderboardEntry, error) {
	scores, err := s.scores(ctx, period, category)
	if err != nil {
		return nil, err
	}

	sortStanding(scores)
	if len(scores) > limit {
		scores = scores[:limit]
	}

	ids := make([]uuid.UUID, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]leaderboardDto.LeaderboardEntry, 0, len(scores))
	for i, sc := range scores {
		entry := leaderboardDto.LeaderboardEntry{
			UserID: sc.UserID,
			Rank:   i + 1, // dense 1..N, strict order even on tied scores
			Score:  sc.Score,
		}
		if u, ok := users[sc.UserID]; ok {
			entry.Username = u.Username
			entry.AvatarURL = u.AvatarURL
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *leaderboardService) scores(ctx context.Context, period, category string) ([]leaderboardRepo.UserScore, error) {
	since := periodStart(period, s.now())

	switch category {
	case CategoryWorkouts:
		return s.repo.AggregateEventScores(ctx, entity.ActivityWorkoutCompleted, false, since)
	case CategoryCalories:
		return s.repo.AggregateEventScores(ctx, entity.ActivityCaloriesBurned, true, since)
	default: // streak: period-independent, always the current run
		cutoff := entity.Day(s.now()).AddDate(0, 0, -streakLookbackDays)
		facts, err := s.repo.ActiveDayFacts(ctx, cutoff)
		if err != nil {
			return nil, err
		}
		return streakScores(facts, s.now()), nil
	}
}

func (s *leaderboardService) resolveMyRank(ctx context.Context, userID uuid.UUID, period, category string) (*leaderboardDto.LeaderboardEntry, error) {
	since := periodStart(period, s.now())

	var me leaderboardRepo.UserScore
	var ahead int64
	var err error

	switch category {
	case CategoryWorkouts, CategoryCalories:
		eventType := entity.ActivityWorkoutCompleted
		sum := false
		if category == CategoryCalories {
			eventType = entity.ActivityCaloriesBurned
			sum = true
		}
		me, err = s.repo.UserEventScore(ctx, eventType, sum, since, userID)
		if err != nil {
			return nil, err
		}
		if me.Score == 0 {
			return nil, nil
		}
		ahead, err = s.repo.CountAhead(ctx, eventType, sum, since, me)
		if err != nil {
			return nil, err
		}
	default: // streak
		cutoff := entity.Day(s.now()).AddDate(0, 0, -streakLookbackDays)
		facts, err := s.repo.ActiveDayFacts(ctx, cutoff)
		if err != nil {
			return nil, err
		}
		scores := streakScores(facts, s.now())
		found := false
		for _, sc := range scores {
			if sc.UserID == userID {
				me = sc
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
		ahead = int64(rankAmong(scores, me) - 1)
	}

	entry := &leaderboardDto.LeaderboardEntry{
		UserID: userID,
		Rank:   int(ahead) + 1,
		Score:  me.Score,
	}
	if u, uerr := s.users.FindByID(ctx, userID); uerr == nil {
		entry.Username = u.Username
		entry.AvatarURL = u.AvatarURL
	}
	return entry, nil
}

// Cache layer. A stale read is worse than an explicit failure for a
// leaderboard, so cache errors only ever fall through to Postgres; the
// Postgres path is never retried and surfaces 503 on transient failure.

func cacheKey(period, category string) string {
	return fmt.Sprintf("leaderboard:%s:%s", period, category)
}

func (s *leaderboardService) readCache(ctx context.Context, period, category string) ([]leaderboardDto.LeaderboardEntry, bool) {
	if s.redisClient == nil {
		return nil, false
	}

	payload, err := s.redisClient.Get(ctx, cacheKey(period, category)).Bytes()
	if err != nil {
		return nil, false
	}

	var entries []leaderboardDto.LeaderboardEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *leaderboardService) writeCache(ctx context.Context, period, category string, entries []leaderboardDto.LeaderboardEntry) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, cacheKey(period, category), payload, s.cacheTTL).Err(); err != nil {
		log.Printf("leaderboard cache write failed: %v", err)
	}
}

func (s *leaderboardService) WarmCache(ctx context.Context) error {
	periods := []string{PeriodWeekly, PeriodMonthly, PeriodAllTime}
	categories := []string{CategoryWorkouts, CategoryCalories, CategoryStreak}

	for _, period := range periods {
		for _, category := range categories {
			entries, err := s.computeTop(ctx, period, category, maxLimit)
			if err != nil {
				return fmt.Errorf("warm %s/%s: %w", period, category, err)
			}
			s.writeCache(ctx, period, category, entries)
		}
	}
	return nil
}
