package cache_test

import (
	"context"
	"testing"
	"time"

	"MediCore/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "reset_code:a@b.c", "123456", time.Minute))

	got, err := store.Get(ctx, "reset_code:a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "123456", got)

	now = now.Add(time.Minute)
	got, err = store.Get(ctx, "reset_code:a@b.c")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()

	require.NoError(t, store.Set(ctx, "appointments_cache:p1", "x", 0))
	require.NoError(t, store.Set(ctx, "appointments_cache:p2", "y", 0))
	require.NoError(t, store.Set(ctx, "doctor_cache:d1", "z", 0))

	require.NoError(t, store.DeleteAll(ctx, "appointments_cache:*"))

	v, _ := store.Get(ctx, "appointments_cache:p1")
	assert.Empty(t, v)
	v, _ = store.Get(ctx, "doctor_cache:d1")
	assert.Equal(t, "z", v)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()

	type doctor struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var out doctor
	assert.ErrorIs(t, cache.GetJSON(ctx, store, "doctor_cache:1", &out), cache.ErrMiss)

	require.NoError(t, cache.SetJSON(ctx, store, "doctor_cache:1", doctor{ID: "1", Name: "Grey"}, time.Hour))
	require.NoError(t, cache.GetJSON(ctx, store, "doctor_cache:1", &out))
	assert.Equal(t, doctor{ID: "1", Name: "Grey"}, out)
}

func TestMemoryIncr(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemory().WithClock(func() time.Time { return now })

	for want := int64(1); want <= 3; want++ {
		n, err := store.Incr(ctx, "reset_code_attempts:a@b.c", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	now = now.Add(time.Minute)
	n, err := store.Incr(ctx, "reset_code_attempts:a@b.c", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired counters start over")

	require.NoError(t, store.Set(ctx, "doctor_cache:1", "{}", 0))
	_, err = store.Incr(ctx, "doctor_cache:1", 0)
	assert.Error(t, err)
}
