package storagetier_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cropgenius/authflow/storagetier"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTier(t *testing.T) (*storagetier.RedisTier, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storagetier.NewRedisTier(client, storagetier.Persistent, time.Second), server
}

func TestRedisTierDefaults(t *testing.T) {
	tier := storagetier.NewRedisTier(nil, "", 0)
	assert.Equal(t, storagetier.Persistent, tier.Name())
	assert.False(t, tier.Available(), "nil client must not probe as available")
}

func TestRedisTierRoundTrip(t *testing.T) {
	tier, _ := setupRedisTier(t)

	require.NoError(t, tier.SetItem("flow-abc", `{"state":"abc"}`))

	value, found, err := tier.GetItem("flow-abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"state":"abc"}`, value)

	require.NoError(t, tier.RemoveItem("flow-abc"))

	_, found, err = tier.GetItem("flow-abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisTierStoresWithoutServerTTL(t *testing.T) {
	tier, server := setupRedisTier(t)

	require.NoError(t, tier.SetItem("flow-abc", "v"))
	assert.Equal(t, time.Duration(0), server.TTL("flow-abc"))
}

func TestRedisTierKeysFiltersByPrefix(t *testing.T) {
	tier, _ := setupRedisTier(t)

	require.NoError(t, tier.SetItem("app-a", "1"))
	require.NoError(t, tier.SetItem("app-b", "2"))
	require.NoError(t, tier.SetItem("other-c", "3"))

	keys, err := tier.Keys("app-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app-a", "app-b"}, keys)
}

func TestRedisTierAvailability(t *testing.T) {
	tier, server := setupRedisTier(t)
	assert.True(t, tier.Available())

	server.Close()
	assert.False(t, tier.Available())
}

func TestRedisTierReportsServerErrors(t *testing.T) {
	tier, server := setupRedisTier(t)
	server.Close()

	require.Error(t, tier.SetItem("k", "v"))
	_, _, err := tier.GetItem("k")
	require.Error(t, err)
	require.Error(t, tier.RemoveItem("k"))
	_, err = tier.Keys("app-")
	require.Error(t, err)
}
