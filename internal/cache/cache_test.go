package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("abc123")

	_, found := c.Get(key)
	assert.False(t, found)

	require.NoError(t, c.Set(key, []byte("plan text"), 0))
	val, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, []byte("plan text"), val)

	// An already-expired entry is treated as a miss and removed.
	require.NoError(t, c.Set(key, []byte("stale"), -time.Second))
	_, found = c.Get(key)
	assert.False(t, found)
	_, found = c.Get(key)
	assert.False(t, found)
}

func TestDiskCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewDiskCache(t.TempDir(), 0)
	key := Key("abc123")

	require.NoError(t, c.Set(key, []byte("plan text"), 0))

	val, found := c.Get(key)
	require.True(t, found, "an entry with no TTL anywhere must not expire on write")
	assert.Equal(t, []byte("plan text"), val)
}

func TestDiskCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	key := Key("abc123")

	require.NoError(t, NewDiskCache(dir, time.Hour).Set(key, []byte("plan text"), 0))

	reopened := NewDiskCache(dir, time.Hour)
	val, found := reopened.Get(key)
	require.True(t, found)
	assert.Equal(t, []byte("plan text"), val)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := Key("abc123")

	// Seed the disk tier only, as a prior process would have.
	require.NoError(t, NewDiskCache(dir, time.Hour).Set(key, []byte("plan text"), 0))

	layered := NewLayeredCache(dir, time.Hour)
	val, found := layered.Get(key)
	require.True(t, found)
	assert.Equal(t, []byte("plan text"), val)

	// The hit was promoted: deleting the disk entry leaves the memory tier.
	require.NoError(t, layered.disk.Delete(key))
	val, found = layered.Get(key)
	require.True(t, found)
	assert.Equal(t, []byte("plan text"), val)
}

func TestLayeredCache_DeleteRemovesBothTiers(t *testing.T) {
	layered := NewLayeredCache(t.TempDir(), time.Hour)
	key := Key("abc123")

	require.NoError(t, layered.Set(key, []byte("plan text"), 0))
	require.NoError(t, layered.Delete(key))

	_, found := layered.Get(key)
	assert.False(t, found)
}
