package syncrelay_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hack4change/moncton/internal/syncrelay"
)

func exerciseLocker(t *testing.T, l syncrelay.Locker) {
	t.Helper()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "profile:a@example.com")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_Serializes(t *testing.T) {
	t.Parallel()
	exerciseLocker(t, syncrelay.NewLocalLocker())
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	t.Parallel()

	l := syncrelay.NewLocalLocker()
	unlockA, err := l.Lock(context.Background(), "team:a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(context.Background(), "team:b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_ContextCancelled(t *testing.T) {
	t.Parallel()

	l := syncrelay.NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockTTL(t *testing.T) {
	assert.Equal(t, 30*time.Second, syncrelay.LockTTL(10*time.Second))
	assert.Equal(t, 3*time.Second, syncrelay.LockTTL(time.Second))
}

func TestRedisLocker_Serializes(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("skipping: REDIS_URL not set")
	}

	client, err := syncrelay.NewRedisClient(context.Background(), url)
	if err != nil {
		t.Skipf("skipping: cannot connect to redis: %v", err)
	}
	defer client.Close()

	exerciseLocker(t, syncrelay.NewRedisLocker(client, 5*time.Second, 5*time.Millisecond))
}
