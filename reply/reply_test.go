package reply

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeEmpty(t *testing.T) {
	msg, ok := Compose("unhinted/ttf/A.ttf", nil)
	assert.False(t, ok)
	assert.Empty(t, msg)
}

func TestCompose(t *testing.T) {
	msg, ok := Compose("unhinted/ttf/NotoSans/NotoSans-Regular.ttf", []Section{
		{Commit: "0123456789abcdef", Version: "2.010", GlyphLog: "A=0+1255", ImageURL: "https://img/1.png"},
		{Commit: "fedcba9876543210", Version: "2.009", GlyphLog: "A=0+1250"},
	})
	assert.True(t, ok)
	want := "Here's your regression log:\n\n" +
		"## NotoSans-Regular.ttf 2.010 @ 0123456\n\n" +
		"`A=0+1255`\n\n" +
		"<img src=\"https://img/1.png\">\n\n" +
		"## NotoSans-Regular.ttf 2.009 @ fedcba9\n\n" +
		"`A=0+1250`\n\n"
	assert.Equal(t, want, msg)
}

func TestComposeShapingError(t *testing.T) {
	msg, ok := Compose("A.ttf", []Section{
		{Commit: "abc", Version: "1.0", Err: errors.New("cannot parse\nfont")},
	})
	assert.True(t, ok)
	assert.Contains(t, msg, "## A.ttf 1.0 @ abc\n\n_shaping failed: cannot parse font_\n\n")
	assert.False(t, strings.Contains(msg, "`"))
}
