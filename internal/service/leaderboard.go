package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type LeaderboardEntry struct {
	UserID     int64    `json:"user_id"`
	Username   string   `json:"username"`
	FirstName  string   `json:"first_name"`
	Category   Category `json:"category"`
	Score      int      `json:"score"`
	Total      int      `json:"total"`
	Percentage int      `json:"percentage"`
	Date       string   `json:"date"`
}

// beats reports whether e is a better result than other.
func (e LeaderboardEntry) beats(other LeaderboardEntry) bool {
	if e.Percentage != other.Percentage {
		return e.Percentage > other.Percentage
	}
	return e.Score > other.Score
}

type LeaderboardService interface {
	// AddEntry records a finished quiz and reports whether it is the player's new best.
	AddEntry(ctx context.Context, player Player, category Category, score, total int) (bool, error)
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	// Position is 1-based; -1 means the player has no entry.
	Position(ctx context.Context, userID int64) (int, *LeaderboardEntry, error)
}

const (
	leaderboardKey          = "quizbot:leaderboard"
	leaderboardWriteRetries = 10
)

// NewLeaderboardService uses Redis when a client is given and memory otherwise.
func NewLeaderboardService(rdb *redis.Client, logger *zap.Logger) LeaderboardService {
	if rdb != nil {
		return NewRedisLeaderboardService(rdb, logger)
	}
	// data is lost on restart
	return NewMemoryLeaderboardService()
}

func newEntry(player Player, category Category, score, total int, now time.Time) LeaderboardEntry {
	percentage := 0
	if total > 0 {
		percentage = (score * 100) / total
	}
	return LeaderboardEntry{
		UserID:     player.UserID,
		Username:   player.Username,
		FirstName:  player.FirstName,
		Category:   category,
		Score:      score,
		Total:      total,
		Percentage: percentage,
		Date:       now.Format("02.01.2006 15:04"),
	}
}

func sortEntries(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	sorted := make([]LeaderboardEntry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].beats(sorted[j]) {
			return true
		}
		if sorted[j].beats(sorted[i]) {
			return false
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}

func positionOf(sorted []LeaderboardEntry, userID int64) (int, *LeaderboardEntry) {
	for i, entry := range sorted {
		if entry.UserID == userID {
			return i + 1, &entry
		}
	}
	return -1, nil
}

// RedisLeaderboardService keeps one JSON entry per player in a Redis hash.
type RedisLeaderboardService struct {
	rdb    *redis.Client
	key    string
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisLeaderboardService(rdb *redis.Client, logger *zap.Logger) *RedisLeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLeaderboardService{
		rdb:    rdb,
		key:    leaderboardKey,
		logger: logger,
		now:    time.Now,
	}
}

func (rs *RedisLeaderboardService) load(ctx context.Context) ([]LeaderboardEntry, error) {
	raw, err := rs.rdb.HGetAll(ctx, rs.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(raw))
	for field, value := range raw {
		var entry LeaderboardEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			rs.logger.Warn("skipping malformed leaderboard entry", zap.String("field", field), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// AddEntry compares and writes inside a WATCH transaction on the hash and retries
// when another writer got there first.
func (rs *RedisLeaderboardService) AddEntry(ctx context.Context, player Player, category Category, score, total int) (bool, error) {
	entry := newEntry(player, category, score, total, rs.now())
	field := strconv.FormatInt(player.UserID, 10)

	raw, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("marshal entry: %w", err)
	}

	for attempt := 0; attempt < leaderboardWriteRetries; attempt++ {
		var isNewBest bool
		err := rs.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.HGet(ctx, rs.key, field).Result()
			switch {
			case err == redis.Nil:
			case err != nil:
				return fmt.Errorf("hget: %w", err)
			default:
				var existing LeaderboardEntry
				if err := json.Unmarshal([]byte(current), &existing); err == nil && !entry.beats(existing) {
					return nil
				}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, rs.key, field, raw)
				return nil
			})
			if err != nil {
				return err
			}
			isNewBest = true
			return nil
		}, rs.key)

		switch {
		case err == nil:
			return isNewBest, nil
		case errors.Is(err, redis.TxFailedErr):
			rs.logger.Debug("leaderboard write conflict, retrying",
				zap.Int64("user_id", player.UserID),
				zap.Int("attempt", attempt+1))
			continue
		default:
			return false, fmt.Errorf("leaderboard write: %w", err)
		}
	}
	return false, fmt.Errorf("leaderboard entry for user %d: %w", player.UserID, redis.TxFailedErr)
}

func (rs *RedisLeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries, err := rs.load(ctx)
	if err != nil {
		return nil, err
	}
	return sortEntries(entries, limit), nil
}

func (rs *RedisLeaderboardService) Position(ctx context.Context, userID int64) (int, *LeaderboardEntry, error) {
	entries, err := rs.load(ctx)
	if err != nil {
		return -1, nil, err
	}
	pos, entry := positionOf(sortEntries(entries, 0), userID)
	return pos, entry, nil
}

// MemoryLeaderboardService is the fallback when Redis is not configured.
type MemoryLeaderboardService struct {
	mu      sync.RWMutex
	entries map[int64]LeaderboardEntry
	now     func() time.Time
}

func NewMemoryLeaderboardService() *MemoryLeaderboardService {
	return &MemoryLeaderboardService{
		entries: make(map[int64]LeaderboardEntry),
		now:     time.Now,
	}
}

func (ms *MemoryLeaderboardService) AddEntry(_ context.Context, player Player, category Category, score, total int) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := newEntry(player, category, score, total, ms.now())
	if existing, ok := ms.entries[player.UserID]; ok && !entry.beats(existing) {
		return false, nil
	}
	ms.entries[player.UserID] = entry
	return true, nil
}

func (ms *MemoryLeaderboardService) snapshot() []LeaderboardEntry {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entries := make([]LeaderboardEntry, 0, len(ms.entries))
	for _, entry := range ms.entries {
		entries = append(entries, entry)
	}
	return entries
}

func (ms *MemoryLeaderboardService) Top(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	return sortEntries(ms.snapshot(), limit), nil
}

func (ms *MemoryLeaderboardService) Position(_ context.Context, userID int64) (int, *LeaderboardEntry, error) {
	pos, entry := positionOf(sortEntries(ms.snapshot(), 0), userID)
	return pos, entry, nil
}
