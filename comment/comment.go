/*
Package comment recognizes regression-test requests in issue comments.

A request is a comment which mentions the bot and contains a phrase of the form

	regression test <TEXT> with <FONTFILE>

Everything between "regression test " and " with " is the text to shape; the
remainder of the line is the font file, given relative to the root of the
font repository. Unhinted fonts may be named by their base name only: a file
name which does not contain "hinted" is looked up in [DefaultDir].

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package comment

import (
	"regexp"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'notobot.comment'
func tracer() tracing.Trace {
	return tracing.Select("notobot.comment")
}

// DefaultMention is the token a comment has to contain to be considered at all.
const DefaultMention = "@notobot"

// DefaultDir is the repository directory of unhinted TrueType fonts.
const DefaultDir = "unhinted/ttf/"

var requestPattern = regexp.MustCompile(`regression test (.*) with (.*)`)

// Request is a parsed regression-test request.
type Request struct {
	Text string // text to shape
	File string // font path, relative to the repository root
}

// Parser extracts requests from comment bodies. The zero value uses
// DefaultMention and DefaultDir.
type Parser struct {
	Mention    string
	DefaultDir string
}

// Parse checks body for a request, using the default parser.
func Parse(body string) (Request, bool) {
	return Parser{}.Parse(body)
}

// Parse checks body for a request. It returns false if body does not mention
// the bot or does not contain a well-formed request.
func (p Parser) Parse(body string) (Request, bool) {
	mention := p.Mention
	if mention == "" {
		mention = DefaultMention
	}
	if !strings.Contains(body, mention) {
		tracer().Debugf("comment does not mention %s", mention)
		return Request{}, false
	}
	m := requestPattern.FindStringSubmatch(body)
	if m == nil {
		tracer().Infof("comment mentions %s but is not a regression test request", mention)
		return Request{}, false
	}
	// captures are taken verbatim, except for the CR of CRLF line ends
	text := strings.TrimRight(m[1], "\r")
	file := strings.TrimRight(m[2], "\r")
	if text == "" || file == "" {
		tracer().Infof("regression test request without text or font file")
		return Request{}, false
	}
	req := Request{
		Text: text,
		File: p.NormalizePath(file),
	}
	tracer().Infof("regression test request: %q with %s", req.Text, req.File)
	return req, true
}

// NormalizePath maps a user-supplied font file name to a repository path.
// One leading slash is removed; names not containing "hinted" are put into
// the parser's default directory.
func (p Parser) NormalizePath(file string) string {
	dir := p.DefaultDir
	if dir == "" {
		dir = DefaultDir
	}
	file = strings.TrimPrefix(file, "/")
	if !strings.Contains(file, "hinted") {
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		file = dir + file
	}
	return file
}
