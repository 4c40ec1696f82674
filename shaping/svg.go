package shaping

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
)

// FlipTransform is the transform applied to the glyph group of an SVG
// rendering. Glyph outlines are given in font units with the Y axis pointing
// up; the transform flips them into SVG's downward Y axis.
const FlipTransform = `transform="matrix(1 0 0 -1 0 0)"`

// SVG renders the glyph run as an SVG document in font units. The view box
// spans the advance width of the run horizontally and the font's ascender to
// descender vertically. Glyphs without outlines (e.g. spaces) produce no path.
func (r *Result) SVG() string {
	width := float64(r.Advance())
	if width <= 0 {
		width = float64(r.Upem)
	}
	asc, desc := float64(r.Ascender), float64(r.Descender)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 %s %s %s">`,
		num(-asc), num(width), num(asc-desc))
	b.WriteString("\n<g " + FlipTransform + ">\n")
	var penX, penY float32
	for _, g := range r.Glyphs {
		if d := r.pathData(g.GID, penX+float32(g.XOffset), penY+float32(g.YOffset)); d != "" {
			fmt.Fprintf(&b, `<path fill="#000000" d="%s"/>`, d)
			b.WriteByte('\n')
		}
		penX += float32(g.XAdvance)
		penY += float32(g.YAdvance)
	}
	b.WriteString("</g>\n</svg>\n")
	return b.String()
}

// pathData returns the outline of a glyph, moved by (dx, dy), as SVG path data.
func (r *Result) pathData(gid font.GID, dx, dy float32) string {
	if r.face == nil {
		return ""
	}
	outline, ok := r.face.GlyphData(gid).(font.GlyphOutline)
	if !ok || len(outline.Segments) == 0 {
		return ""
	}
	var b strings.Builder
	pt := func(p opentype.SegmentPoint) {
		b.WriteString(num(float64(p.X + dx)))
		b.WriteByte(' ')
		b.WriteString(num(float64(p.Y + dy)))
	}
	for i, seg := range outline.Segments {
		switch seg.Op {
		case opentype.SegmentOpMoveTo:
			if i > 0 {
				b.WriteString("Z")
			}
			b.WriteString("M")
			pt(seg.Args[0])
		case opentype.SegmentOpLineTo:
			b.WriteString("L")
			pt(seg.Args[0])
		case opentype.SegmentOpQuadTo:
			b.WriteString("Q")
			pt(seg.Args[0])
			b.WriteByte(' ')
			pt(seg.Args[1])
		case opentype.SegmentOpCubeTo:
			b.WriteString("C")
			pt(seg.Args[0])
			b.WriteByte(' ')
			pt(seg.Args[1])
			b.WriteByte(' ')
			pt(seg.Args[2])
		}
	}
	b.WriteString("Z")
	return b.String()
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 32)
}
