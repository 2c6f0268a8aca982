package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-attendance/store"
	"github.com/warp/office-attendance/store/memory"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()

	_, ok, err := kv.Get(ctx, store.KeySettings)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Put(ctx, store.KeyVisits, []byte(`{"schemaVersion":2}`)))
	require.NoError(t, kv.Put(ctx, store.KeySettings, []byte(`{}`)))

	v, ok, err := kv.Get(ctx, store.KeyVisits)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"schemaVersion":2}`, string(v))

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{store.KeySettings, store.KeyVisits}, keys)

	require.NoError(t, kv.Delete(ctx, store.KeyVisits))
	require.NoError(t, kv.Delete(ctx, "missing"))
	_, ok, err = kv.Get(ctx, store.KeyVisits)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	value := []byte("abc")

	require.NoError(t, kv.Put(ctx, "k", value))
	value[0] = 'x'
	got, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[0] = 'y'
	again, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemory_Closed(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Close())

	assert.ErrorIs(t, kv.Put(ctx, "k", nil), store.ErrClosed)
	_, _, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, kv.Delete(ctx, "k"), store.ErrClosed)
	_, err = kv.Keys(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}
