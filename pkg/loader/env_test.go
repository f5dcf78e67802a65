package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nestmap "github.com/goliatone/go-nestmap"
)

func TestEnvBuildsNestedKeys(t *testing.T) {
	t.Setenv("NESTMAPTEST_OBS__TEMPERATURE", "5")
	t.Setenv("NESTMAPTEST_OBS__UNIT", "K")
	t.Setenv("NESTMAPTEST_LOG_LEVEL", "debug")
	t.Setenv("OTHER_VALUE", "ignored")

	pairs, err := Env("NESTMAPTEST_")
	require.NoError(t, err)

	tree, err := nestmap.New(pairs)
	require.NoError(t, err)

	temperature, err := tree.Get("!obs.temperature")
	require.NoError(t, err)
	assert.Equal(t, "5", temperature.Scalar())

	level, err := tree.Get("log_level")
	require.NoError(t, err)
	assert.Equal(t, "debug", level.Scalar())

	assert.False(t, tree.Has("other_value"))
	assert.Equal(t, 3, tree.Len())
}

func TestEnvWithoutMatches(t *testing.T) {
	pairs, err := Env("NESTMAPTEST_NOTHING_")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
