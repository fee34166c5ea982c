package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tourist-safety-service/internal/error/code"
	"tourist-safety-service/internal/error/response"
)

// TokenBucket 简单的令牌桶限流器
type TokenBucket struct {
	rate       float64    // 每秒填充的令牌数
	capacity   int        // 桶的容量
	tokens     float64    // 当前令牌数
	lastRefill time.Time  // 上次填充时间
	lastAccess time.Time  // 上次请求时间，用于过期清理
	mu         sync.Mutex // 互斥锁
}

// NewTokenBucket 创建新的令牌桶限流器
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	now := time.Now()
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: now,
		lastAccess: now,
	}
}

// Allow 尝试获取令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now
	tb.lastAccess = now

	// 填充令牌
	tb.tokens += elapsed * tb.rate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	// 尝试获取令牌
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}

	return false
}

// idleSince 返回是否自指定时刻后再无请求
func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastAccess.Before(cutoff)
}

// 按IP的限流器映射
var (
	ipLimiters   = make(map[string]*TokenBucket)
	ipLimitersMu sync.Mutex
)

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64       // 每秒允许的请求数
	Burst      int           // 允许的突发请求数
	ExpiryTime time.Duration // 空闲多久后回收该IP的限流器
}

// DefaultRateLimiterConfig 默认限流器配置。
// 位置上报走实时通道不经过这里，HTTP接口主要是管理端操作。
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       20,
	Burst:      40,
	ExpiryTime: 1 * time.Hour,
}

// RateLimitMiddleware 按客户端IP限流的Gin中间件
func RateLimitMiddleware(configs ...RateLimiterConfig) gin.HandlerFunc {
	cfg := DefaultRateLimiterConfig
	if len(configs) > 0 {
		cfg = configs[0]
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()

		ipLimitersMu.Lock()
		limiter, exists := ipLimiters[ip]
		if !exists {
			limiter = NewTokenBucket(cfg.Rate, cfg.Burst)
			ipLimiters[ip] = limiter
		}
		ipLimitersMu.Unlock()

		if !limiter.Allow() {
			response.Fail(c, code.ErrTooManyRequests, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// cleanExpiredLimiters 回收空闲超过maxIdle的IP限流器，防止映射无界增长
func cleanExpiredLimiters(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	ipLimitersMu.Lock()
	defer ipLimitersMu.Unlock()
	for ip, limiter := range ipLimiters {
		if limiter.idleSince(cutoff) {
			delete(ipLimiters, ip)
		}
	}
}

// 定期清理过期的限流器
func init() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cleanExpiredLimiters(DefaultRateLimiterConfig.ExpiryTime)
		}
	}()
}
