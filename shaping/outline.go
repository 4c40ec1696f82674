package shaping

import (
	"image"
	"image/draw"

	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"
)

// Rasterize draws the glyph run directly into an alpha mask, at ppem pixels
// per em, without going through SVG. The mask is as wide as the run's advance
// and as tall as ascender minus descender, baseline at the ascender.
func (r *Result) Rasterize(ppem int) *image.Alpha {
	if r.Upem == 0 || ppem <= 0 {
		return image.NewAlpha(image.Rect(0, 0, 1, 1))
	}
	scale := float32(ppem) / float32(r.Upem)
	width := int(float32(r.Advance())*scale + 0.5)
	height := int((r.Ascender-r.Descender)*scale + 0.5)
	width, height = max(width, 1), max(height, 1)
	baseline := r.Ascender * scale
	//
	rast := vector.NewRasterizer(width, height)
	rast.DrawOp = draw.Over
	var penX, penY float32
	for _, g := range r.Glyphs {
		if r.face == nil {
			break
		}
		outline, ok := r.face.GlyphData(g.GID).(font.GlyphOutline)
		if ok {
			dx := (penX + float32(g.XOffset)) * scale
			dy := baseline - (penY+float32(g.YOffset))*scale
			at := func(p opentype.SegmentPoint) (float32, float32) {
				return dx + p.X*scale, dy - p.Y*scale
			}
			for i, seg := range outline.Segments {
				switch seg.Op {
				case opentype.SegmentOpMoveTo:
					if i > 0 {
						rast.ClosePath()
					}
					rast.MoveTo(at(seg.Args[0]))
				case opentype.SegmentOpLineTo:
					rast.LineTo(at(seg.Args[0]))
				case opentype.SegmentOpQuadTo:
					x1, y1 := at(seg.Args[0])
					x2, y2 := at(seg.Args[1])
					rast.QuadTo(x1, y1, x2, y2)
				case opentype.SegmentOpCubeTo:
					x1, y1 := at(seg.Args[0])
					x2, y2 := at(seg.Args[1])
					x3, y3 := at(seg.Args[2])
					rast.CubeTo(x1, y1, x2, y2, x3, y3)
				}
			}
			rast.ClosePath()
		}
		penX += float32(g.XAdvance)
		penY += float32(g.YAdvance)
	}
	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}
