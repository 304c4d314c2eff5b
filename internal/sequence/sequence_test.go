package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisSequence(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, TicketKey), mr
}

func TestRedisNextIncrements(t *testing.T) {
	seq, _ := newRedisSequence(t)
	ctx := context.Background()

	first, err := seq.Next(ctx)
	require.NoError(t, err)
	second, err := seq.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestRedisConcurrentValuesAreDistinct(t *testing.T) {
	seq, _ := newRedisSequence(t)
	const n = 64

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]struct{}, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := seq.Next(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestRedisEnsureAtLeast(t *testing.T) {
	seq, mr := newRedisSequence(t)
	ctx := context.Background()

	got, err := seq.EnsureAtLeast(ctx, 41)
	require.NoError(t, err)
	assert.Equal(t, int64(41), got)

	next, err := seq.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)

	// A lower floor never moves the counter backwards.
	got, err = seq.EnsureAtLeast(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	v, err := mr.Get("printshop:seq:ticket")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestRedisUnavailable(t *testing.T) {
	seq, mr := newRedisSequence(t)
	mr.SetError("LOADING server is loading")
	_, err := seq.Next(context.Background())
	assert.Error(t, err)
}
