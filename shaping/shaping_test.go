package shaping

import (
	"regexp"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// --- Test Suite Preparation ------------------------------------------------

type ShapeTestEnviron struct {
	suite.Suite
}

func TestShapeFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "notobot.shaper")
	defer teardown()
	suite.Run(t, new(ShapeTestEnviron))
}

// --- Tests -----------------------------------------------------------------

func (env *ShapeTestEnviron) TestShapeLatin() {
	res, err := Shaper{}.Shape(goregular.TTF, "ABC")
	env.Require().NoError(err)
	env.Require().Len(res.Glyphs, 3)
	for i, name := range []string{"A", "B", "C"} {
		env.Equal(name, res.Glyphs[i].Name)
		env.Equal(i, res.Glyphs[i].Cluster)
		env.Greater(res.Glyphs[i].XAdvance, int32(0))
	}
	env.Equal(uint16(2048), res.Upem)
	env.Greater(res.Ascender, float32(0))
	env.Less(res.Descender, float32(0))
}

func (env *ShapeTestEnviron) TestLog() {
	res, err := Shaper{}.Shape(goregular.TTF, "ABC")
	env.Require().NoError(err)
	log := res.Log()
	env.T().Logf("log = %s", log)
	env.Regexp(regexp.MustCompile(`^A=0\+\d+\|B=1\+\d+\|C=2\+\d+$`), log)
	bold, err := Shaper{}.Shape(gobold.TTF, "ABC")
	env.Require().NoError(err)
	env.NotEqual(log, bold.Log(), "expected different fonts to shape differently")
}

func (env *ShapeTestEnviron) TestLogFormat() {
	res := &Result{Glyphs: []Glyph{
		{GID: 36, Name: "A", Cluster: 0, XAdvance: 1255},
		{GID: 3, Cluster: 1, XAdvance: 600, XOffset: -80, YOffset: 12},
		{GID: 37, Name: "B", Cluster: 2, XAdvance: 0, YAdvance: -1000},
	}}
	env.Equal("A=0+1255|gid3=1@-80,12+600|B=2+0,-1000", res.Log())
}

func (env *ShapeTestEnviron) TestFeatures() {
	res, err := Shaper{Features: []string{"-kern,+liga", "ss01=1"}}.Shape(goregular.TTF, "AV")
	env.Require().NoError(err)
	env.Len(res.Glyphs, 2)
	_, err = Shaper{Features: []string{"+toolong"}}.Shape(goregular.TTF, "AV")
	env.Error(err)
	_, err = Shaper{Direction: "sideways"}.Shape(goregular.TTF, "AV")
	env.Error(err)
}

func (env *ShapeTestEnviron) TestRightToLeft() {
	res, err := Shaper{Direction: "rtl"}.Shape(goregular.TTF, "ABC")
	env.Require().NoError(err)
	env.Require().Len(res.Glyphs, 3)
	env.Equal("C", res.Glyphs[0].Name, "expected visual order for RTL run")
	env.Equal(2, res.Glyphs[0].Cluster)
}

func (env *ShapeTestEnviron) TestErrors() {
	_, err := Shaper{}.Shape(goregular.TTF, "")
	env.ErrorIs(err, ErrEmptyText)
	_, err = Shaper{}.Shape([]byte("no font"), "ABC")
	env.Error(err)
}

func (env *ShapeTestEnviron) TestSVG() {
	res, err := Shaper{}.Shape(goregular.TTF, "A B")
	env.Require().NoError(err)
	svg := res.SVG()
	env.True(strings.HasPrefix(svg, "<svg "))
	env.Contains(svg, FlipTransform)
	env.Equal(2, strings.Count(svg, "<path "), "expected no path for the space glyph")
	env.Contains(svg, `viewBox="0 -`)
}

func (env *ShapeTestEnviron) TestRasterize() {
	res, err := Shaper{}.Shape(goregular.TTF, "ABC")
	env.Require().NoError(err)
	mask := res.Rasterize(64)
	b := mask.Bounds()
	env.Greater(b.Dx(), 64)
	inked := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.AlphaAt(x, y).A > 0 {
				inked++
			}
		}
	}
	env.Greater(inked, 100, "expected glyphs to cover some pixels")
}
