/*
Package reply composes the Markdown comment posted in answer to a
regression-test request.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package reply

import (
	"fmt"
	"path"
	"strings"
)

// Header starts every reply.
const Header = "Here's your regression log:\n\n"

// Section is the outcome of shaping with one historical version of a font.
type Section struct {
	Commit   string
	Version  string
	GlyphLog string
	ImageURL string // may be empty
	Err      error  // shaping error, replaces the glyph log
}

// ShortCommit abbreviates a commit ID to 7 characters.
func ShortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// Compose renders one section per entry, in order. It returns false if
// there are no sections, in which case no reply should be posted.
func Compose(file string, sections []Section) (string, bool) {
	if len(sections) == 0 {
		return "", false
	}
	base := path.Base(file)
	var b strings.Builder
	b.WriteString(Header)
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s %s @ %s\n\n", base, s.Version, ShortCommit(s.Commit))
		if s.Err != nil {
			fmt.Fprintf(&b, "_shaping failed: %s_\n\n", oneLine(s.Err.Error()))
			continue
		}
		fmt.Fprintf(&b, "`%s`\n\n", s.GlyphLog)
		if s.ImageURL != "" {
			fmt.Fprintf(&b, "<img src=\"%s\">\n\n", s.ImageURL)
		}
	}
	return b.String(), true
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
