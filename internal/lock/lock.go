// Package lock 提供基于 redis 的员工预约锁，保证同一员工的冲突检查与写入串行执行
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotAcquired = errors.New("the employee is being booked by another request, please retry")

// 只有持有者的 token 与当前值一致时才删除，避免误删别人在锁过期后重新获得的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	rdb        *redis.Client
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration, retries int, retryDelay time.Duration) *Locker {
	return &Locker{
		rdb:        rdb,
		ttl:        ttl,
		retries:    retries,
		retryDelay: retryDelay,
	}
}

func EmployeeKey(employeeID int64) string {
	return fmt.Sprintf("booking_lock:employee:%d", employeeID)
}

// Acquire 获得 key 对应的锁，返回的 release 必须在临界区结束后调用
func (l *Locker) Acquire(ctx context.Context, key string) (release func(), err error) {
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if attempt >= l.retries {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}

	release = func() {
		// 请求的 ctx 可能已经结束，释放锁使用独立的 ctx
		releaseCtx, cancel := context.WithTimeout(context.Background(), l.ttl)
		defer cancel()
		deleted, err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Int()
		switch {
		case err != nil:
			// 锁会在 ttl 后自动过期
			slog.Warn("释放预约锁失败", "key", key, "error", err)
		case deleted == 0:
			slog.Warn("预约锁在释放前已经过期", "key", key)
		}
	}

	return release, nil
}

// AcquireEmployee 是 Acquire(ctx, EmployeeKey(employeeID)) 的简写
func (l *Locker) AcquireEmployee(ctx context.Context, employeeID int64) (func(), error) {
	return l.Acquire(ctx, EmployeeKey(employeeID))
}
