/*
Package shaping shapes text with a font binary and renders the result.

Shaping is done by the HarfBuzz port of go-text/typesetting. A shaped glyph
run may be serialized to a log line in the format of HarfBuzz' hb-shape
utility (see [Result.Log]) and rendered as an SVG document (see [Result.SVG]).
Both representations are meant for comparing the output of different versions
of a font, so they are deterministic for a given font binary and text.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package shaping

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/harfbuzz"
	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'notobot.shaper'
func tracer() tracing.Trace {
	return tracing.Select("notobot.shaper")
}

// errShaper wraps a message as a shaping error.
func errShaper(x string) error {
	return fmt.Errorf("OpenType text shaping: %s", x)
}

// ErrEmptyText is returned when asked to shape an empty string.
var ErrEmptyText = errors.New("OpenType text shaping: empty text")

// Shaper holds shaping parameters. The zero value guesses direction, script
// and language from the text and applies the font's default features.
type Shaper struct {
	Features  []string // feature settings in hb-shape syntax, e.g. "-liga", "ss01=1"
	Direction string   // "ltr", "rtl", "ttb", "btt" or empty
	Script    string   // ISO 15924 code like "Deva", or empty
	Language  string   // BCP 47 tag, or empty
}

// Glyph is a shaped glyph. Advances and offsets are in font units.
type Glyph struct {
	GID      font.GID
	Name     string
	Cluster  int
	XAdvance int32
	YAdvance int32
	XOffset  int32
	YOffset  int32
}

// Result is a shaped glyph run together with the font data needed to render it.
type Result struct {
	Glyphs    []Glyph
	Upem      uint16
	Ascender  float32
	Descender float32 // negative below the baseline
	face      *font.Face
}

// Shape parses the font binary and shapes text with it.
func (s Shaper) Shape(fontData []byte, text string) (*Result, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	face, err := font.ParseTTF(bytes.NewReader(fontData))
	if err != nil {
		return nil, errShaper(fmt.Sprintf("cannot parse font: %v", err))
	}
	features, err := ParseFeatures(s.Features)
	if err != nil {
		return nil, err
	}
	buf := harfbuzz.NewBuffer()
	runes := []rune(text)
	buf.AddRunes(runes, 0, -1)
	if err := s.setProperties(buf); err != nil {
		return nil, err
	}
	buf.GuessSegmentProperties()
	tracer().Debugf("shaping %d runes, direction=%v script=%v", len(runes), buf.Props.Direction, buf.Props.Script)
	buf.Shape(harfbuzz.NewFont(face), features)
	//
	res := &Result{
		Glyphs: make([]Glyph, len(buf.Info)),
		Upem:   face.Upem(),
		face:   face,
	}
	if ext, ok := face.FontHExtents(); ok {
		res.Ascender, res.Descender = ext.Ascender, ext.Descender
	} else {
		res.Ascender, res.Descender = float32(res.Upem)*0.8, -float32(res.Upem)*0.2
	}
	for i, info := range buf.Info {
		pos := buf.Pos[i]
		res.Glyphs[i] = Glyph{
			GID:      info.Glyph,
			Name:     face.GlyphName(info.Glyph),
			Cluster:  info.Cluster,
			XAdvance: pos.XAdvance,
			YAdvance: pos.YAdvance,
			XOffset:  pos.XOffset,
			YOffset:  pos.YOffset,
		}
	}
	tracer().Debugf("shaped %q into %d glyphs", text, len(res.Glyphs))
	return res, nil
}

func (s Shaper) setProperties(buf *harfbuzz.Buffer) error {
	switch strings.ToLower(strings.TrimSpace(s.Direction)) {
	case "":
	case "ltr", "left-to-right":
		buf.Props.Direction = harfbuzz.LeftToRight
	case "rtl", "right-to-left":
		buf.Props.Direction = harfbuzz.RightToLeft
	case "ttb", "top-to-bottom":
		buf.Props.Direction = harfbuzz.TopToBottom
	case "btt", "bottom-to-top":
		buf.Props.Direction = harfbuzz.BottomToTop
	default:
		return errShaper(fmt.Sprintf("unsupported direction %q (expected ltr|rtl|ttb|btt)", s.Direction))
	}
	if scr := strings.TrimSpace(s.Script); scr != "" {
		script, err := language.ParseScript(scr)
		if err != nil {
			return errShaper(fmt.Sprintf("invalid script %q: %v", scr, err))
		}
		buf.Props.Script = script
	}
	if lang := strings.TrimSpace(s.Language); lang != "" {
		buf.Props.Language = language.NewLanguage(lang)
	}
	return nil
}

// ParseFeatures parses feature settings in hb-shape syntax. Items may be
// separated by commas within a single string.
func ParseFeatures(specs []string) ([]harfbuzz.Feature, error) {
	var features []harfbuzz.Feature
	for _, spec := range specs {
		for _, item := range strings.Split(spec, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			f, err := harfbuzz.ParseFeature(item)
			if err != nil {
				return nil, errShaper(fmt.Sprintf("invalid feature %q: %v", item, err))
			}
			features = append(features, f)
		}
	}
	return features, nil
}

// Advance returns the total horizontal advance of the run.
func (r *Result) Advance() int32 {
	var w int32
	for _, g := range r.Glyphs {
		w += g.XAdvance
	}
	return w
}
