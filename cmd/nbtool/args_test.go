package main

import (
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodepoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.tool")
	defer teardown()
	//
	runes, err := parseCodepoints("U+0915, 0x94D u+0937,93F")
	require.NoError(t, err)
	assert.Equal(t, "क्षि", string(runes))
	_, err = parseCodepoints("U+D800")
	assert.Error(t, err)
	_, err = parseCodepoints("U+XYZ")
	assert.Error(t, err)
}

func TestShapeInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.tool")
	defer teardown()
	//
	text, err := shapeInput([]string{"Hello", "World"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
	text, err = shapeInput([]string{"ignored"}, "U+0041,U+0042")
	require.NoError(t, err)
	assert.Equal(t, "AB", text)
	_, err = shapeInput(nil, "")
	assert.Error(t, err)
}

func TestShaperFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.tool")
	defer teardown()
	//
	f := shaperFlags{direction: "rtl"}
	s, err := f.shaper([]string{"-liga"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-liga"}, s.Features)
	assert.Equal(t, "rtl", s.Direction)
	f.features = "+kern,ss01=1"
	s, err = f.shaper([]string{"-liga"})
	require.NoError(t, err)
	assert.Equal(t, []string{"+kern", "ss01=1"}, s.Features)
	f.features = "+toolong"
	_, err = f.shaper(nil)
	assert.Error(t, err)
}

func TestTraceLevel(t *testing.T) {
	l, err := parseTraceLevel("Debug")
	require.NoError(t, err)
	assert.Equal(t, tracing.LevelDebug, l)
	_, err = parseTraceLevel("Verbose")
	assert.Error(t, err)
}

func TestTracedPackages(t *testing.T) {
	// keys of the packages nbtool runs
	for _, key := range []string{
		"notobot.comment", "notobot.cache", "notobot.history", "notobot.fonts",
		"notobot.shaper", "notobot.raster", "notobot.upload", "notobot.pipeline",
	} {
		assert.Contains(t, tracedPackages, key)
	}
	assert.NotContains(t, tracedPackages, "notobot.fontquery")
}
