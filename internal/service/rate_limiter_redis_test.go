package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type bucketState struct {
	tokens float64
	ts     int64
}

// fakeBucketRedis reproduce en Go lo que hace tokenBucketScript.
type fakeBucketRedis struct {
	buckets map[string]bucketState
	keys    []string
	ttls    []int64
	err     error
}

func newFakeBucketRedis() *fakeBucketRedis {
	return &fakeBucketRedis{buckets: make(map[string]bucketState)}
}

func (f *fakeBucketRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	if script != tokenBucketScript || len(keys) != 1 || len(args) != 4 {
		cmd.SetErr(errors.New("unexpected eval call"))
		return cmd
	}
	perSec := args[0].(float64)
	burst := float64(args[1].(int))
	now := args[2].(int64)
	f.keys = append(f.keys, keys[0])
	f.ttls = append(f.ttls, args[3].(int64))

	st, ok := f.buckets[keys[0]]
	if !ok {
		st = bucketState{tokens: burst, ts: now}
	}
	elapsed := now - st.ts
	if elapsed < 0 {
		elapsed = 0
	}
	st.tokens = math.Min(burst, st.tokens+(float64(elapsed)/1000)*perSec)
	allowed := int64(0)
	if st.tokens >= 1 {
		st.tokens--
		allowed = 1
	}
	st.ts = now
	f.buckets[keys[0]] = st
	cmd.SetVal(allowed)
	return cmd
}

func TestRedisRateLimiterGuards(t *testing.T) {
	var nilLimiter *redisRateLimiter
	if !nilLimiter.Allow("10.0.0.1") {
		t.Fatalf("nil limiter must let requests through")
	}
	if l := NewRedisRateLimiter(nil, 6, 3); l != nil {
		t.Fatalf("expected nil limiter without client")
	}

	fake := newFakeBucketRedis()
	l := newRedisRateLimiter(fake, 6, 3)
	if l.Allow("   ") {
		t.Fatalf("blank key must be rejected")
	}
	if len(fake.keys) != 0 {
		t.Fatalf("blank key must not reach redis")
	}

	fake.err = errors.New("redis down")
	if !l.Allow("10.0.0.1") {
		t.Fatalf("redis errors must fail open")
	}
}

func TestRedisRateLimiterKeyAndTTL(t *testing.T) {
	fake := newFakeBucketRedis()
	l := newRedisRateLimiter(fake, 6, 3)
	l.Allow(" 10.0.0.1 ")

	if len(fake.keys) != 1 || fake.keys[0] != "reflection:rl:10.0.0.1" {
		t.Fatalf("unexpected keys %v", fake.keys)
	}
	// 3 tokens a 0.1/s tardan 30s en recargarse.
	if fake.ttls[0] != 30000 {
		t.Fatalf("expected ttl 30000ms, got %d", fake.ttls[0])
	}
}

func TestRedisRateLimiterMatchesInMemoryBucket(t *testing.T) {
	const perMin, burst = 60, 3
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	now := start

	l := newRedisRateLimiter(newFakeBucketRedis(), perMin, burst)
	l.now = func() time.Time { return now }
	mem := rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst)

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{0, true},
		{0, true},
		{0, false},
		{500 * time.Millisecond, false},
		{time.Second, true},
		{time.Second, false},
		{10 * time.Second, true},
		{10 * time.Second, true},
		{10 * time.Second, true},
		{10 * time.Second, false},
	}
	for i, s := range steps {
		now = start.Add(s.at)
		gotRedis := l.Allow("10.0.0.1")
		gotMem := mem.AllowN(now, 1)
		if gotRedis != gotMem {
			t.Fatalf("call %d at %v: redis=%v memory=%v", i, s.at, gotRedis, gotMem)
		}
		if gotRedis != s.want {
			t.Fatalf("call %d at %v: expected %v, got %v", i, s.at, s.want, gotRedis)
		}
	}
}

func TestRedisRateLimiterKeysAreIndependent(t *testing.T) {
	l := newRedisRateLimiter(newFakeBucketRedis(), 6, 1)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("1.1.1.1") || l.Allow("1.1.1.1") {
		t.Fatalf("expected burst of 1 for first ip")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatalf("other ip must keep its own bucket")
	}
}
