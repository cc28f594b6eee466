package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTweetFetchConfigFromFlags(t *testing.T) {
	cmd := tweetFetchCmd
	require.NoError(t, cmd.Flags().Set("no-cache", "true"))
	require.NoError(t, cmd.Flags().Set("raw", "true"))
	defer func() {
		cmd.Flags().Set("no-cache", "false")
		cmd.Flags().Set("raw", "false")
	}()

	config := getTweetFetchConfigFromFlags(cmd)
	assert.True(t, config.NoCache)
	assert.True(t, config.Raw)
}

func TestGetTweetArchiveConfigFromFlags(t *testing.T) {
	cmd := tweetArchiveCmd
	require.NoError(t, cmd.Flags().Set("force", "true"))
	require.NoError(t, cmd.Flags().Set("dest", "/tmp/bundle"))
	defer func() {
		cmd.Flags().Set("force", "false")
		cmd.Flags().Set("dest", "")
	}()

	config := getTweetArchiveConfigFromFlags(cmd)
	assert.True(t, config.Force)
	assert.Equal(t, "/tmp/bundle", config.Dest)
}

func TestTweetArchiveConfigDefaults(t *testing.T) {
	config := NewTweetArchiveConfig()
	assert.False(t, config.Force)
	assert.Empty(t, config.Dest)
}

func TestCacheRoot(t *testing.T) {
	t.Run("explicit config wins", func(t *testing.T) {
		viper.Set("cache_root", "/tmp/custom-cache")
		defer viper.Set("cache_root", "")

		root, err := cacheRoot()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/custom-cache", root)
	})

	t.Run("defaults under the home directory", func(t *testing.T) {
		viper.Set("cache_root", "")

		root, err := cacheRoot()
		require.NoError(t, err)
		assert.Contains(t, root, ".skillet")
	})
}
