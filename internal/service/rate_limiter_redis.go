package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript guarda tokens y último acceso (ms) en un hash por IP.
// ARGV: tokens por segundo, burst, ahora en ms, ttl en ms. Devuelve 1 si hay token.
const tokenBucketScript = `
local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = burst
  ts = now
end
local elapsed = now - ts
if elapsed < 0 then
  elapsed = 0
end
tokens = math.min(burst, tokens + (elapsed / 1000) * rate)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", tostring(now))
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return allowed
`

// RateLimiter decide si una clave (IP del cliente) puede hacer otra reflection.
type RateLimiter interface {
	Allow(key string) bool
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client redisEvaler
	perSec float64
	burst  int
	refill time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisRateLimiter aplica el mismo token bucket que el limitador en memoria
// (perMin/60 tokens por segundo, hasta burst), compartido entre instancias.
func NewRedisRateLimiter(client *redis.Client, perMin, burst int) RateLimiter {
	if client == nil {
		return nil
	}
	return newRedisRateLimiter(client, perMin, burst)
}

func newRedisRateLimiter(client redisEvaler, perMin, burst int) *redisRateLimiter {
	if perMin <= 0 {
		perMin = 6
	}
	if burst <= 0 {
		burst = 1
	}
	return &redisRateLimiter{
		client: client,
		perSec: float64(perMin) / 60.0,
		burst:  burst,
		refill: time.Duration(burst) * time.Minute / time.Duration(perMin),
		prefix: "reflection:rl:",
		now:    time.Now,
	}
}

// ttl cubre el tiempo de recargar el bucket completo; después la clave sobra.
func (l *redisRateLimiter) ttl() time.Duration {
	if l.refill < time.Second {
		return time.Second
	}
	return l.refill
}

// Allow falla abierto si Redis no responde.
func (l *redisRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	allowed, err := l.client.Eval(ctx, tokenBucketScript, []string{l.prefix + normalizedKey},
		l.perSec, l.burst, l.now().UnixMilli(), l.ttl().Milliseconds()).Int()
	if err != nil {
		return true
	}
	return allowed == 1
}
