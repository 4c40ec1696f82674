package notobot

import (
	"context"

	"github.com/npillmayer/notobot/fontquery"
	"github.com/npillmayer/notobot/history"
	"github.com/npillmayer/notobot/reply"
	"github.com/npillmayer/notobot/upload"
)

// Result is the outcome of shaping with one historical version of a font.
type Result struct {
	Commit   string
	Version  string // font version, from the name or head table
	GlyphLog string
	SVG      string
	ImageURL string // empty if no image has been published
	ShapeErr error  // set if the text could not be shaped
	ImageErr error  // set if the image could not be rendered or uploaded
}

// Section converts r for the reply composer.
func (r Result) Section() reply.Section {
	return reply.Section{
		Commit:   r.Commit,
		Version:  r.Version,
		GlyphLog: r.GlyphLog,
		ImageURL: r.ImageURL,
		Err:      r.ShapeErr,
	}
}

// process shapes, renders and uploads one version.
func (bot *Bot) process(ctx context.Context, v history.Version) Result {
	res := Result{Commit: v.Commit}
	if version, err := fontquery.Version(v.Font); err != nil {
		tracer().Infof("no version for %s at %s: %v", v.Path, reply.ShortCommit(v.Commit), err)
		res.Version = "unknown"
	} else {
		res.Version = version
	}
	shaped, err := bot.Shaper.Shape(v.Font, v.Text)
	if err != nil {
		tracer().Errorf("shaping with %s at %s: %v", v.Path, reply.ShortCommit(v.Commit), err)
		res.ShapeErr = err
		return res
	}
	res.GlyphLog = shaped.Log()
	res.SVG = shaped.SVG()
	tracer().Debugf("%s @ %s: %s", v.Path, reply.ShortCommit(v.Commit), res.GlyphLog)
	if bot.Uploader == nil {
		return res
	}
	png, err := bot.Rasterizer.RenderPNG(res.SVG)
	if err != nil {
		tracer().Errorf("rendering %s at %s: %v", v.Path, reply.ShortCommit(v.Commit), err)
		res.ImageErr = err
		return res
	}
	url, err := bot.Uploader.Upload(ctx, upload.Name(v.Path, v.Commit, v.Text), png)
	if err != nil {
		tracer().Errorf("uploading image of %s at %s: %v", v.Path, reply.ShortCommit(v.Commit), err)
		res.ImageErr = err
		return res
	}
	res.ImageURL = url
	return res
}
