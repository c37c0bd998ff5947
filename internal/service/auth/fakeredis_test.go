package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEntry 单个键的存储项
type redisEntry struct {
	value     string
	expiresAt *time.Time
}

func (e redisEntry) expired(now time.Time) bool {
	return e.expiresAt != nil && !now.Before(*e.expiresAt)
}

// redisStub 内存版 Redis，覆盖激活令牌限流用到的命令子集
type redisStub struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]redisEntry
}

func newRedisStub(now func() time.Time) *redisStub {
	return &redisStub{
		now:     now,
		entries: make(map[string]redisEntry),
	}
}

// liveLocked 返回键是否存在且未过期，过期键顺带删除
func (r *redisStub) liveLocked(key string) bool {
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	if e.expired(r.now()) {
		delete(r.entries, key)
		return false
	}
	return true
}

func (r *redisStub) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "EXISTS", keys)
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, key := range keys {
		if r.liveLocked(key) {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (r *redisStub) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "INCR", key)
	r.mu.Lock()
	defer r.mu.Unlock()

	e := redisEntry{value: "0"}
	if r.liveLocked(key) {
		e = r.entries[key]
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		cmd.SetErr(fmt.Errorf("value is not an integer or out of range"))
		return cmd
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	r.entries[key] = e
	cmd.SetVal(n)
	return cmd
}

func (r *redisStub) ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "EXPIREAT", key, tm.Unix())
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.liveLocked(key) {
		cmd.SetVal(false)
		return cmd
	}
	e := r.entries[key]
	e.expiresAt = &tm
	r.entries[key] = e
	cmd.SetVal(true)
	return cmd
}

func (r *redisStub) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "SET", key)
	r.mu.Lock()
	defer r.mu.Unlock()

	e := redisEntry{value: fmt.Sprint(value)}
	if expiration > 0 {
		t := r.now().Add(expiration)
		e.expiresAt = &t
	}
	r.entries[key] = e
	cmd.SetVal("OK")
	return cmd
}

func (r *redisStub) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "DEL", keys)
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, key := range keys {
		if !r.liveLocked(key) {
			continue
		}
		delete(r.entries, key)
		deleted++
	}
	cmd.SetVal(deleted)
	return cmd
}

func (r *redisStub) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "GET", key)
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.liveLocked(key) {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(r.entries[key].value)
	return cmd
}

// testClock 可推进的测试时钟，用于验证限流窗口过期
type testClock struct {
	now atomic.Value // time.Time
}

func newTestClock(start time.Time) *testClock {
	c := &testClock{}
	c.now.Store(start)
	return c
}

func (c *testClock) Now() time.Time {
	return c.now.Load().(time.Time)
}

func (c *testClock) Advance(d time.Duration) {
	c.now.Store(c.Now().Add(d))
}

func newTestRedisClient(t *testing.T) (redisCmdable, *testClock) {
	t.Helper()
	clock := newTestClock(time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))
	return newRedisStub(clock.Now), clock
}
