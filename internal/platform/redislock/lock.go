package redislock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studyladder/internal/platform/httpx"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

const (
	defaultPrefix    = "studyladder:lock:"
	defaultRetryWait = 50 * time.Millisecond
	releaseTimeout   = 3 * time.Second
)

var ErrNotAcquired = errors.New("lock not acquired")

// Deletes the key only while it still holds our token, so an expired lock
// taken over by another holder is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker is a single-instance Redis mutex: SET NX PX with a random token and
// a token-checked release.
type Locker struct {
	log       *logger.Logger
	rdb       *goredis.Client
	ttl       time.Duration
	retryWait time.Duration
	prefix    string
}

func New(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Locker{
		log:       log.With("service", "RedisLocker"),
		rdb:       rdb,
		ttl:       ttl,
		retryWait: defaultRetryWait,
		prefix:    defaultPrefix,
	}
}

// Dial connects to addr and verifies it with PING.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Acquire polls until the lock is held or ctx is done.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}
		if err := httpx.SleepContext(ctx, httpx.JitterSleep(l.retryWait)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}
	}
}

// TryAcquire makes a single attempt.
func (l *Locker) TryAcquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
	}
	return l.releaser(redisKey, token), nil
}

func (l *Locker) releaser(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}
}

func (l *Locker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err(); err != nil {
		l.log.Warn("redis unlock failed", "key", redisKey, "error", err)
	}
}
