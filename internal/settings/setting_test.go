package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peyda/internal/settings"
	"peyda/internal/testsupport"
)

func TestSetupDefaultSettings(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	require.NoError(t, settings.SetupDefaultSettings(db))

	value, err := settings.GetSetting(db, "excluded_ips")
	require.NoError(t, err)
	assert.Empty(t, value)

	// Seeding again must not clobber an existing value.
	require.NoError(t, settings.UpdateSetting(db, "excluded_ips", "203.0.113.1"))
	require.NoError(t, settings.SetupDefaultSettings(db))

	value, err = settings.GetSetting(db, "excluded_ips")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.1", value)
}

func TestUpdateSetting(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	require.NoError(t, settings.UpdateSetting(db, "greeting", "hello"))
	require.NoError(t, settings.UpdateSetting(db, "greeting", "salam"))

	value, err := settings.GetSetting(db, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "salam", value)

	_, err = settings.GetSetting(db, "missing-key")
	assert.Error(t, err)
}

func TestExcludedIPs(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	settings.ResetCache()

	t.Run("empty by default", func(t *testing.T) {
		ips, err := settings.GetExcludedIPs(db)
		require.NoError(t, err)
		assert.Empty(t, ips)
	})

	t.Run("update trims and persists", func(t *testing.T) {
		require.NoError(t, settings.UpdateExcludedIPs(db, []string{" 203.0.113.1 ", "", "198.51.100.2"}))

		ips, err := settings.GetExcludedIPs(db)
		require.NoError(t, err)
		assert.Equal(t, []string{"203.0.113.1", "198.51.100.2"}, ips)

		value, err := settings.GetSetting(db, "excluded_ips")
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.1,198.51.100.2", value)
	})

	t.Run("cache survives direct reads", func(t *testing.T) {
		excluded, err := settings.IsIPExcluded(db, "203.0.113.1")
		require.NoError(t, err)
		assert.True(t, excluded)

		excluded, err = settings.IsIPExcluded(db, "203.0.113.99")
		require.NoError(t, err)
		assert.False(t, excluded)
	})

	t.Run("empty ip is never excluded", func(t *testing.T) {
		excluded, err := settings.IsIPExcluded(db, "")
		require.NoError(t, err)
		assert.False(t, excluded)
	})

	t.Run("reset cache reloads from the database", func(t *testing.T) {
		settings.ResetCache()

		ips, err := settings.GetExcludedIPs(db)
		require.NoError(t, err)
		assert.Equal(t, []string{"203.0.113.1", "198.51.100.2"}, ips)
	})
}
