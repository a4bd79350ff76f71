package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLockRunsImmediatelyWhenFree(t *testing.T) {
	m := New()
	ran := false
	err := m.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSameGameSerializes(t *testing.T) {
	m := New()
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(context.Background(), "g1", func(ctx context.Context) error {
				time.Sleep(time.Millisecond)
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Len(t, order, 5)
}

func TestDifferentGamesRunConcurrently(t *testing.T) {
	m := New()
	var inFlight int32
	var maxInFlight int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		gameID := "g"
		if i%2 == 0 {
			gameID = "g-even"
		} else {
			gameID = "g-odd"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = m.WithLock(context.Background(), id, func(ctx context.Context) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					cur := atomic.LoadInt32(&maxInFlight)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}(gameID)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
}

func TestFailureDoesNotPoisonQueue(t *testing.T) {
	m := New()
	err1 := m.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		return assert.AnError
	})
	require.Error(t, err1)

	ran := false
	err2 := m.WithLock(context.Background(), "g1", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err2)
	assert.True(t, ran)
}

func TestEntryReapedWhenQueueDrains(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(context.Background(), "g1", func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}

func TestCancelBeforeAcquire(t *testing.T) {
	m := New()
	blocker := make(chan struct{})
	go func() {
		_ = m.WithLock(context.Background(), "g1", func(ctx context.Context) error {
			<-blocker
			return nil
		})
	}()
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := m.WithLock(ctx, "g1", func(ctx context.Context) error {
		t.Fatal("should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(blocker)
}
