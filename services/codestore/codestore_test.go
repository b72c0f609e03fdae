package codestore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	t.Cleanup(store.Close)
	return store
}

func TestKey(t *testing.T) {
	assert.Equal(t, "verify_email:a@x.com", Key(PurposeVerifyEmail, "a@x.com"))
	assert.Equal(t, "reset_password:a@x.com", Key(PurposeResetPassword, "a@x.com"))
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	// 50 draws from a million-wide space should not all collide.
	assert.Greater(t, len(seen), 1)
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", "123456", time.Minute))

	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "123456", value)

	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "123456", 30*time.Millisecond))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	time.Sleep(50 * time.Millisecond)

	// Expired key reads identically to an absent key.
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_OverwriteResetsTTL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "first", 30*time.Millisecond))
	require.NoError(t, store.Set(ctx, "k", "second", time.Minute))

	time.Sleep(50 * time.Millisecond)

	value, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", value)
}

func TestMemoryStore_DeleteAbsentKey(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Delete(context.Background(), "never-set"))
}

func TestMemoryStore_CompareAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("absent key is not consumed", func(t *testing.T) {
		consumed, err := store.CompareAndDelete(ctx, "missing", "123456")
		require.NoError(t, err)
		assert.False(t, consumed)
	})

	t.Run("mismatch leaves the value in place", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", "123456", time.Minute))

		consumed, err := store.CompareAndDelete(ctx, "k", "654321")
		require.NoError(t, err)
		assert.False(t, consumed)

		value, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "123456", value)
	})

	t.Run("match consumes the key", func(t *testing.T) {
		consumed, err := store.CompareAndDelete(ctx, "k", "123456")
		require.NoError(t, err)
		assert.True(t, consumed)

		_, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired key is not consumed", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "stale", "123456", -time.Second))

		consumed, err := store.CompareAndDelete(ctx, "stale", "123456")
		require.NoError(t, err)
		assert.False(t, consumed)
	})
}

func TestMemoryStore_CompareAndDelete_Concurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "123456", time.Minute))

	var consumed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := store.CompareAndDelete(ctx, "k", "123456")
			assert.NoError(t, err)
			if ok {
				consumed.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	// Exactly one caller wins the race for a given key.
	assert.Equal(t, int32(1), consumed.Load())
}

func TestMemoryStore_CloseStopsSweep(t *testing.T) {
	store := NewMemoryStore()
	store.Close()
	// Safe to call twice; goleak's TestMain verifies the goroutine exited.
	store.Close()
}
