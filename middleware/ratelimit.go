package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fixitnow-backend/config"
	"fixitnow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])
	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill_tokens)
		last_refill = last_refill + intervals * interval_ms
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)
	return { allowed, tokens, retry_after_ms }
`)

// RateLimit applies a token bucket per ip+user+route. The bucket lives in
// Redis when rdb is set; otherwise each process keeps its own limiters.
// Redis errors let the request through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var allow func(c *gin.Context, key string) (bool, int64, time.Duration)
	if rdb != nil {
		allow = redisAllow(cfg, rdb)
	} else {
		allow = newLocalLimiter(cfg).allow
	}

	return func(c *gin.Context) {
		key := rateKey(cfg.Prefix, c)
		ok, remaining, retry := allow(c, key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !ok {
			secs := int(math.Ceil(retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				utils.BuildResponseFailed("Too many requests, please try again later", "rate_limited", nil))
			return
		}
		c.Next()
	}
}

func redisAllow(cfg config.RateLimitConfig, rdb *redis.Client) func(*gin.Context, string) (bool, int64, time.Duration) {
	return func(c *gin.Context, key string) (bool, int64, time.Duration) {
		vals, err := tokenBucket.Run(c.Request.Context(), rdb, []string{key},
			time.Now().UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.TTL/time.Second),
		).Int64Slice()
		if err != nil || len(vals) != 3 {
			slog.Warn("ratelimit: redis script failed", "key", key, "error", err)
			return true, int64(cfg.Capacity), 0
		}
		return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond
	}
}

// localLimiter keeps one rate.Limiter per key, forgetting idle keys after TTL.
type localLimiter struct {
	cfg      config.RateLimitConfig
	mu       sync.Mutex
	limiters map[string]*localEntry
	lastGC   time.Time
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(cfg config.RateLimitConfig) *localLimiter {
	return &localLimiter{cfg: cfg, limiters: map[string]*localEntry{}, lastGC: time.Now()}
}

func (l *localLimiter) allow(_ *gin.Context, key string) (bool, int64, time.Duration) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.cfg.TTL {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > l.cfg.TTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	e, ok := l.limiters[key]
	if !ok {
		every := l.cfg.RefillInterval / time.Duration(l.cfg.RefillTokens)
		e = &localEntry{limiter: rate.NewLimiter(rate.Every(every), l.cfg.Capacity)}
		l.limiters[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int64(e.limiter.TokensAt(now)), 0
}

func rateKey(prefix string, c *gin.Context) string {
	uid := "anon"
	if id, ok := CurrentIdentity(c); ok {
		uid = id.ID()
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return strings.Join([]string{prefix, "ip", c.ClientIP(), "user", uid, "route", fmt.Sprintf("%s %s", c.Request.Method, route)}, ":")
}
