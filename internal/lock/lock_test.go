package lock

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, retries int) (*Locker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewLocker(rdb, 5*time.Second, retries, 10*time.Millisecond), mr
}

func TestAcquireIsExclusive(t *testing.T) {
	locker, mr := newTestLocker(t, 2)
	ctx := context.Background()

	release, err := locker.AcquireEmployee(ctx, 1)
	require.NoError(t, err)
	assert.True(t, mr.Exists(EmployeeKey(1)))

	_, err = locker.AcquireEmployee(ctx, 1)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// 不同员工互不影响
	releaseOther, err := locker.AcquireEmployee(ctx, 2)
	require.NoError(t, err)
	releaseOther()

	release()
	assert.False(t, mr.Exists(EmployeeKey(1)))

	release, err = locker.AcquireEmployee(ctx, 1)
	require.NoError(t, err)
	release()
}

func TestStaleReleaseKeepsNewOwner(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	ctx := context.Background()

	staleRelease, err := locker.AcquireEmployee(ctx, 3)
	require.NoError(t, err)

	// 锁过期后被另一个请求获得
	mr.FastForward(6 * time.Second)
	release, err := locker.AcquireEmployee(ctx, 3)
	require.NoError(t, err)

	staleRelease()
	assert.True(t, mr.Exists(EmployeeKey(3)))

	release()
	assert.False(t, mr.Exists(EmployeeKey(3)))
}

func TestAcquireWaitsForRelease(t *testing.T) {
	locker, _ := newTestLocker(t, 50)
	ctx := context.Background()

	release, err := locker.AcquireEmployee(ctx, 4)
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()

	second, err := locker.AcquireEmployee(ctx, 4)
	require.NoError(t, err)
	second()
}

func TestAcquireHonoursContext(t *testing.T) {
	locker, _ := newTestLocker(t, 100)

	release, err := locker.AcquireEmployee(context.Background(), 5)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = locker.AcquireEmployee(ctx, 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestReleaseLogsRedisFailure(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	logs := captureLogs(t)

	release, err := locker.AcquireEmployee(context.Background(), 7)
	require.NoError(t, err)

	mr.Close()
	release()

	assert.Contains(t, logs.String(), "释放预约锁失败")
	assert.Contains(t, logs.String(), EmployeeKey(7))
}

func TestReleaseLogsExpiredLock(t *testing.T) {
	locker, mr := newTestLocker(t, 0)
	logs := captureLogs(t)

	release, err := locker.AcquireEmployee(context.Background(), 8)
	require.NoError(t, err)

	mr.FastForward(10 * time.Second)
	release()

	assert.Contains(t, logs.String(), "预约锁在释放前已经过期")
	assert.Contains(t, logs.String(), EmployeeKey(8))
}
