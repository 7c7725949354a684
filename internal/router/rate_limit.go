package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/cartflow/internal/http/response"
	"github.com/dujiao-next/cartflow/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

// Enabled 规则是否生效
func (r RateLimitRule) Enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// windowCounter 窗口内计数，返回累计次数与窗口剩余时间
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

type redisWindowCounter struct {
	client *redis.Client
}

func (r redisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	values, err := fixedWindowScript.Run(ctx, r.client, []string{key}, int64(window/time.Second)).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("rate limit script returned %d values", len(values))
	}
	return values[0], time.Duration(values[1]) * time.Second, nil
}

// RateLimitMiddleware Redis 固定窗口限流；未配置 Redis 或 Redis 出错时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if client == nil || !rule.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return newRateLimitHandler(redisWindowCounter{client: client}, rule, keyFunc)
}

func newRateLimitHandler(counter windowCounter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = KeyByIP
	}
	window := time.Duration(rule.WindowSeconds) * time.Second
	limit := strconv.Itoa(rule.MaxRequests)
	return func(c *gin.Context) {
		key := strings.TrimSpace(keyFunc(c))
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		count, ttl, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		remaining := int64(rule.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rule.MaxRequests) {
			wait := int(ttl / time.Second)
			if wait < 1 {
				wait = rule.WindowSeconds
			}
			c.Header("Retry-After", strconv.Itoa(wait))
			response.Fail(c, response.WrapError(response.CodeTooManyRequests,
				fmt.Sprintf("Too many requests, retry in %d seconds", wait), nil))
			return
		}
		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndMethod 使用 IP + 方法 + 路由模板作为限流 key
func KeyByIPAndMethod(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.ClientIP() + "|" + c.Request.Method + "|" + route
}
