package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is the advisory mutual-exclusion guard for tick runs: acquire
// or fail, never block or queue. Release must be safe to call on every
// exit path, including after a failed acquisition.
type Locker interface {
	// TryAcquire returns true when the lock was obtained, false when
	// another holder has it. It never waits.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives the lock back. Releasing a lock this instance does
	// not hold is a no-op.
	Release(ctx context.Context) error
}

// RedisLock implements Locker with SET NX. The value is a random token
// so Release only deletes the key when this instance still holds it; the
// TTL is a backstop that frees the lock if the process dies mid-tick.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
	held   bool
}

// releaseScript deletes the lock key only when it still carries our
// token, so an expired-and-reacquired lock is never released from here.
var releaseScript = redis.NewScript(
	`if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) end return 0`)

// NewRedisLock builds a lock on the given key with the given expiry.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) (*RedisLock, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("lock token: %w", err)
	}
	return &RedisLock{client: client, key: key, token: hex.EncodeToString(buf), ttl: ttl}, nil
}

func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	l.held = ok
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	l.held = false
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

// FileLock implements Locker with an exclusive pid file: creation with
// O_EXCL either succeeds atomically or fails because a holder exists.
type FileLock struct {
	path string
	held bool
}

// NewFileLock builds a lock backed by the given path.
func NewFileLock(path string) *FileLock { return &FileLock{path: path} }

func (l *FileLock) TryAcquire(ctx context.Context) (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	if err := f.Close(); err != nil {
		return false, err
	}
	l.held = true
	return true, nil
}

func (l *FileLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	l.held = false
	return os.Remove(l.path)
}
