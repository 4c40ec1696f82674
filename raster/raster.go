/*
Package raster turns SVG renderings of glyph runs into bounded PNG images.

Renderings arrive as produced by package shaping: glyph outlines in font
units, wrapped in a group whose transform flips the Y axis. The rasterizer
removes the flip, rasterizes the outlines as they are, trims the image to
the inked area and flips it back. The result is put onto an opaque white
background and scaled down to fit a maximum size.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/npillmayer/schuko/tracing"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// tracer writes to trace with key 'notobot.raster'
func tracer() tracing.Trace {
	return tracing.Select("notobot.raster")
}

// FlipTransform is the Y axis flip removed from renderings before rasterization.
const FlipTransform = `transform="matrix(1 0 0 -1 0 0)"`

// Default bounds of rendered images.
const (
	DefaultMaxWidth  = 600
	DefaultMaxHeight = 400
)

// oversampling is the factor by which the canvas may exceed the image bounds.
// Renderings are scaled down until the view box fits into the bounds
// multiplied by it.
const oversampling = 4

// ErrEmptyImage is returned for renderings without any inked pixel.
var ErrEmptyImage = errors.New("rendering is empty")

// Rasterizer converts SVG renderings to images. The zero value renders
// at one pixel per SVG unit into at most 600×400 pixels.
type Rasterizer struct {
	MaxWidth  int
	MaxHeight int
	Scale     float64 // pixels per SVG unit, defaults to 1
}

func (r Rasterizer) bounds() (int, int) {
	w, h := r.MaxWidth, r.MaxHeight
	if w <= 0 {
		w = DefaultMaxWidth
	}
	if h <= 0 {
		h = DefaultMaxHeight
	}
	return w, h
}

// Render rasterizes svg and post-processes the image: trimmed to its ink,
// upright, on white, and no larger than the rasterizer's bounds.
func (r Rasterizer) Render(svg string) (image.Image, error) {
	ink, err := r.rasterize(svg)
	if err != nil {
		return nil, err
	}
	box, ok := inkBounds(ink)
	if !ok {
		return nil, ErrEmptyImage
	}
	img := imaging.Crop(ink, box)
	img = imaging.FlipV(img)
	canvas := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
	canvas = imaging.Overlay(canvas, img, image.Point{}, 1.0)
	w, h := r.bounds()
	out := imaging.Fit(canvas, w, h, imaging.Lanczos)
	tracer().Debugf("rendered %v ink box into %dx%d image", box, out.Bounds().Dx(), out.Bounds().Dy())
	return out, nil
}

// rasterize draws svg, with the Y flip removed, onto a transparent canvas.
// Removing the flip mirrors the content about the X axis, so the view box
// is mirrored, too.
func (r Rasterizer) rasterize(svg string) (*image.NRGBA, error) {
	flipped := strings.Contains(svg, FlipTransform)
	svg = strings.ReplaceAll(svg, FlipTransform, "")
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("reading SVG: %w", err)
	}
	vb := icon.ViewBox
	if vb.W <= 0 || vb.H <= 0 {
		return nil, fmt.Errorf("SVG has no usable view box: %v", vb)
	}
	if flipped {
		vb.Y = -(vb.Y + vb.H)
	}
	scale := r.canvasScale(vb.W, vb.H)
	w := max(1, int(math.Ceil(vb.W*scale)))
	h := max(1, int(math.Ceil(vb.H*scale)))
	icon.Transform = rasterx.Identity.Scale(scale, scale).Translate(-vb.X, -vb.Y)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}

// canvasScale returns the rasterizer's scale, reduced if a view box of
// width w and height h would not fit into the oversampled image bounds.
func (r Rasterizer) canvasScale(w, h float64) float64 {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	maxW, maxH := r.bounds()
	fit := min(oversampling*float64(maxW)/(w*scale), oversampling*float64(maxH)/(h*scale))
	if fit < 1 {
		tracer().Debugf("reducing scale %.3f by %.3f for %.0fx%.0f view box", scale, fit, w, h)
		scale *= fit
	}
	return scale
}

// inkBounds returns the smallest rectangle containing all pixels with
// non-zero alpha.
func inkBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPNG is Render followed by EncodePNG.
func (r Rasterizer) RenderPNG(svg string) ([]byte, error) {
	img, err := r.Render(svg)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}
