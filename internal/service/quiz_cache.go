package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guardians/internal/cache"
	"guardians/internal/domain"
	"guardians/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultQuizCacheTTL = 10 * time.Minute

// QuizCache is a read-through cache of full quiz definitions, answer keys
// included. Concurrent misses for the same quiz share one repository read.
// A nil domain.Cache turns it into a plain repository lookup.
type QuizCache struct {
	repo  domain.QuizRepository
	cache domain.Cache
	ttl   time.Duration
	group singleflight.Group
}

func NewQuizCache(repo domain.QuizRepository, c domain.Cache, ttl time.Duration) *QuizCache {
	if ttl <= 0 {
		ttl = defaultQuizCacheTTL
	}
	return &QuizCache{repo: repo, cache: c, ttl: ttl}
}

// Get returns the quiz or (nil, nil) when it does not exist. Missing quizzes are not cached.
func (c *QuizCache) Get(ctx context.Context, id string) (*domain.Quiz, error) {
	key := cache.QuizDefinitionKey(id)

	if c.cache != nil {
		raw, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			var quiz domain.Quiz
			errDecode := json.Unmarshal([]byte(raw), &quiz)
			if errDecode == nil {
				return &quiz, nil
			}
			logger.Get().Warn("discarding undecodable cached quiz", zap.String("quizID", id), zap.Error(errDecode))
		case !errors.Is(err, domain.ErrCacheMiss):
			logger.Get().Warn("quiz cache read failed", zap.String("quizID", id), zap.Error(err))
		}
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		quiz, err := c.repo.GetQuizByID(ctx, id)
		if err != nil || quiz == nil {
			return quiz, err
		}
		if c.cache != nil {
			if data, errEncode := json.Marshal(quiz); errEncode == nil {
				if errSet := c.cache.Set(ctx, key, string(data), c.ttl); errSet != nil {
					logger.Get().Warn("quiz cache write failed", zap.String("quizID", id), zap.Error(errSet))
				}
			}
		}
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}

	quiz, ok := res.(*domain.Quiz)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight.Do for quiz: %T", res)
	}
	if quiz == nil {
		return nil, nil
	}
	// callers sharing one load must not share one pointer
	clone := *quiz
	return &clone, nil
}

// Invalidate drops the cached definition and statistics of a quiz.
func (c *QuizCache) Invalidate(ctx context.Context, id string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, cache.QuizDefinitionKey(id), cache.QuizStatisticsKey(id)); err != nil {
		logger.Get().Warn("quiz cache invalidation failed", zap.String("quizID", id), zap.Error(err))
	}
}
