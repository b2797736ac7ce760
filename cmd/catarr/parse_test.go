package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEpisodes(t *testing.T) {
	assert.Equal(t, "E07", formatEpisodes([]int{7}))
	assert.Equal(t, "E01-E02-E03", formatEpisodes([]int{1, 2, 3}))
}

func TestParseEpisodeKey(t *testing.T) {
	season, episode, err := parseEpisodeKey("S01E02")
	require.NoError(t, err)
	assert.Equal(t, 1, season)
	assert.Equal(t, 2, episode)

	season, episode, err = parseEpisodeKey("s10e21")
	require.NoError(t, err)
	assert.Equal(t, 10, season)
	assert.Equal(t, 21, episode)

	_, _, err = parseEpisodeKey("episode two")
	assert.Error(t, err)
}
