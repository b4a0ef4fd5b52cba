package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit ограничивает число запросов на пользователя, для анонимных
// запросов ключом служит IP. Если redis недоступен, запрос пропускается.
func RateLimit(l Limiter, scope string) gin.HandlerFunc {
	log := logger.With("component", "ratelimit", "scope", scope)
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:ip:%s", scope, c.ClientIP())
		if id, ok := UserID(c); ok {
			key = fmt.Sprintf("%s:user:%d", scope, id)
		}
		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", "error", err)
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
