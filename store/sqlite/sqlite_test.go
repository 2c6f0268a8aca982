package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-attendance/store"
	"github.com/warp/office-attendance/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// KV CONTRACT
// =============================================================================

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get(context.Background(), store.KeySettings)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestStore_PutOverwrites(t *testing.T) {
	// GIVEN: a value stored under the visits key
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Put(ctx, store.KeyVisits, []byte(`{"schemaVersion":2,"visits":[]}`)))

	// WHEN: the key is written again
	require.NoError(t, s.Put(ctx, store.KeyVisits, []byte(`{"schemaVersion":2,"visits":[{}]}`)))

	// THEN: the latest value wins and there is still a single key
	v, ok, err := s.Get(ctx, store.KeyVisits)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"schemaVersion":2,"visits":[{}]}`, string(v))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{store.KeyVisits}, keys)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Put(ctx, store.KeyLegacyInOffice, []byte("true")))
	require.NoError(t, s.Put(ctx, store.KeyLegacyCurrentVisit, []byte("{}")))

	require.NoError(t, s.Delete(ctx, store.KeyLegacyInOffice))
	require.NoError(t, s.Delete(ctx, "never-written"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{store.KeyLegacyCurrentVisit}, keys)
}

func TestStore_PersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "officetrack.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, store.KeySettings, []byte(`{"monthlyGoal":8}`)))
	require.NoError(t, s.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, store.KeySettings)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"monthlyGoal":8}`, string(v))
}
