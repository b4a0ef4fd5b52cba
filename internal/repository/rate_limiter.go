package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateKeyPrefix = "rl:"

// RateLimiter - счетчик в фиксированном окне на redis, общий для всех
// экземпляров сервиса
type RateLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{rdb: rdb, limit: int64(limit), window: window}
}

// Allow увеличивает счетчик key в текущем окне. При ошибке redis запрос
// пропускается, ошибка возвращается для логирования.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s%s:%d", rateKeyPrefix, key, bucket)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= l.limit, nil
}
