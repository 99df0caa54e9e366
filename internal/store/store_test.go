package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, BucketState, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, BucketState, "sess-1", []byte(`{"a":1}`)))

	got, err := s.Get(ctx, BucketState, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	require.NoError(t, s.Delete(ctx, BucketState, "sess-1"))
	_, err = s.Get(ctx, BucketState, "sess-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreBucketIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, BucketState, "k", []byte("state")))
	require.NoError(t, s.Put(ctx, BucketCache, "k", []byte("cache")))

	got, err := s.Get(ctx, BucketState, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("state"), got)

	got, err = s.Get(ctx, BucketCache, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("cache"), got)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	value := []byte("original")
	require.NoError(t, s.Put(ctx, BucketCache, "k", value))
	value[0] = 'X'

	got, err := s.Get(ctx, BucketCache, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := s.Get(ctx, BucketCache, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Update(ctx, BucketState, "sess-1", func(current []byte, found bool) ([]byte, error) {
		assert.False(t, found)
		assert.Nil(t, current)
		return []byte("v1"), nil
	})
	require.NoError(t, err)

	err = s.Update(ctx, BucketState, "sess-1", func(current []byte, found bool) ([]byte, error) {
		assert.True(t, found)
		assert.Equal(t, []byte("v1"), current)
		return []byte("v2"), nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, BucketState, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestMemoryStoreUpdateError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, BucketState, "k", []byte("v1")))

	boom := errors.New("boom")
	err := s.Update(ctx, BucketState, "k", func([]byte, bool) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// A failed update leaves the previous value in place.
	got, err := s.Get(ctx, BucketState, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, BucketCache, "weather:48.86:2.35")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, BucketCache, "weather:48.86:2.35", []byte(`{"temp":21}`)))

	got, err := s.Get(ctx, BucketCache, "weather:48.86:2.35")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"temp":21}`), got)

	require.NoError(t, s.Delete(ctx, BucketCache, "weather:48.86:2.35"))
	_, err = s.Get(ctx, BucketCache, "weather:48.86:2.35")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDeleteMissingIsNoop(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), BucketState, "never-written"))
}

func TestFileStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Update(ctx, BucketState, "sess-1", func(current []byte, found bool) ([]byte, error) {
		assert.False(t, found)
		return []byte("v1"), nil
	})
	require.NoError(t, err)

	err = s.Update(ctx, BucketState, "sess-1", func(current []byte, found bool) ([]byte, error) {
		assert.True(t, found)
		assert.Equal(t, []byte("v1"), current)
		return []byte("v2"), nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, BucketState, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestSanitizeKey(t *testing.T) {
	assert.Equal(t, "weather_48.86_2.35", sanitizeKey("weather:48.86:2.35"))
	assert.Equal(t, "a_b_c_d", sanitizeKey("a:b/c d"))
}
