package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-admin/internal/lock"
)

func TestWithLockSerialisesWriters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.Locker{R: client, RetryBackoff: 2 * time.Millisecond, MaxWait: 2 * time.Second}
	key := locker.Key("draft", "d1")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
		done    int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				holders--
				done++
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 5, done)
	require.Equal(t, 1, maxSeen)
	require.False(t, mr.Exists(key), "lock must be released")
}

func TestWithLockGivesUpAfterMaxWait(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := lock.Locker{R: client, Prefix: "pos", RetryBackoff: 5 * time.Millisecond, MaxWait: 30 * time.Millisecond}
	key := locker.Key("draft", "d1")
	require.Equal(t, "pos:draft:d1", key)
	require.NoError(t, mr.Set(key, "someone-else"))

	called := false
	err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, lock.ErrBusy)
	require.False(t, called)
	require.True(t, mr.Exists(key), "foreign lock must not be released")
}
