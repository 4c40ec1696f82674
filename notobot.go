/*
Package notobot answers regression-test requests for fonts.

A request is a comment like

	@notobot regression test क्षि with NotoSansDevanagari-Regular.ttf

The bot enumerates the most recent commits touching the font file, shapes
the text with every historical version of the font, renders each glyph run
to an image and composes a Markdown reply listing, per version, the font's
version string, the commit, the glyph log and the image.

Package notobot holds the pipeline. Receiving comments and posting replies
is done by package webhook, the stages are found in packages comment,
history, shaping, raster, upload and reply.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package notobot

import (
	"context"
	"errors"
	"fmt"

	"github.com/npillmayer/notobot/comment"
	"github.com/npillmayer/notobot/history"
	"github.com/npillmayer/notobot/raster"
	"github.com/npillmayer/notobot/reply"
	"github.com/npillmayer/notobot/shaping"
	"github.com/npillmayer/notobot/upload"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'notobot.pipeline'
func tracer() tracing.Trace {
	return tracing.Select("notobot.pipeline")
}

// Bot runs regression tests. Parser, Shaper and Rasterizer are usable as
// zero values; Enumerator is required and bounds the number of versions
// processed in parallel. Without an Uploader no images are produced.
type Bot struct {
	Parser     comment.Parser
	Enumerator *history.Enumerator
	Shaper     shaping.Shaper
	Rasterizer raster.Rasterizer
	Uploader   upload.Uploader
}

// Answer checks a comment body for a request and, if there is one, runs the
// regression test and returns the reply. It returns an empty string if
// there is nothing to reply.
func (bot *Bot) Answer(ctx context.Context, body string) (string, error) {
	req, ok := bot.Parser.Parse(body)
	if !ok {
		return "", nil
	}
	results, err := bot.Run(ctx, req)
	if err != nil {
		return "", err
	}
	md, ok := Compose(req, results)
	if !ok {
		tracer().Infof("no history for %s, not replying", req.File)
		return "", nil
	}
	return md, nil
}

// Run processes every historical version of the requested font file. Results
// are in commit order, most recent first. Failure to list the history or to
// retrieve any of the versions fails the whole run; shaping, rendering and
// uploading failures are recorded in the results.
func (bot *Bot) Run(ctx context.Context, req comment.Request) ([]Result, error) {
	if bot.Enumerator == nil {
		return nil, errors.New("bot has no history enumerator")
	}
	results, err := history.Map(ctx, bot.Enumerator, req.File, req.Text, bot.process)
	if err != nil {
		return nil, fmt.Errorf("regression test of %s: %w", req.File, err)
	}
	return results, nil
}

// Compose renders results as a reply to req. It returns false if there are
// no results.
func Compose(req comment.Request, results []Result) (string, bool) {
	sections := make([]reply.Section, len(results))
	for i, r := range results {
		sections[i] = r.Section()
	}
	return reply.Compose(req.File, sections)
}
