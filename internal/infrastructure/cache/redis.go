package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"lendcore/internal/domain/jobreport"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// ErrLocked is returned by Acquire while another owner holds the lock.
var ErrLocked = jobreport.ErrRunning

// JobLock serializes fleet-wide batch runs of the same kind across processes.
type JobLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewJobLock(rdb *redis.Client, ttl time.Duration) *JobLock {
	return &JobLock{rdb: rdb, ttl: ttl}
}

func lockKey(name string) string { return "lock:job:" + name }

// Acquire takes the named lock for owner, returning ErrLocked when another owner holds it.
func (l *JobLock) Acquire(ctx context.Context, name, owner string) error {
	ok, err := l.rdb.SetNX(ctx, lockKey(name), owner, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// release only deletes the key if owner still holds it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *JobLock) Release(ctx context.Context, name, owner string) error {
	return releaseScript.Run(ctx, l.rdb, []string{lockKey(name)}, owner).Err()
}
