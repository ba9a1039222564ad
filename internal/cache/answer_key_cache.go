package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/SAP-F-2025/homework-service/internal/grading"
)

const answerKeyObject = "answer_key"

// AnswerKeyCache caches extracted answer keys per homework. Cache failures are
// logged and treated as misses; they never fail grading.
type AnswerKeyCache struct {
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewAnswerKeyCache(cache CacheService, ttl time.Duration, logger *slog.Logger) *AnswerKeyCache {
	return &AnswerKeyCache{cache: cache, ttl: ttl, logger: logger}
}

func AnswerKeyCacheKey(homeworkID uint) string {
	return GenerateCacheKey("grading", answerKeyObject, strconv.FormatUint(uint64(homeworkID), 10))
}

func (c *AnswerKeyCache) Get(ctx context.Context, homeworkID uint) (*grading.KeySource, bool) {
	var source grading.KeySource
	if err := c.cache.Get(ctx, AnswerKeyCacheKey(homeworkID), &source); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Answer key cache read failed", "homework_id", homeworkID, "error", err)
		}
		return nil, false
	}
	return &source, true
}

func (c *AnswerKeyCache) Set(ctx context.Context, homeworkID uint, source *grading.KeySource) {
	if err := c.cache.Set(ctx, AnswerKeyCacheKey(homeworkID), source, c.ttl); err != nil {
		c.logger.Warn("Answer key cache write failed", "homework_id", homeworkID, "error", err)
	}
}

func (c *AnswerKeyCache) Invalidate(ctx context.Context, homeworkID uint) error {
	return c.cache.Delete(ctx, AnswerKeyCacheKey(homeworkID))
}
