package shaping

import (
	"fmt"
	"strings"
)

// Log serializes the glyph run like hb-shape does, e.g.
//
//	A=0+1255|V=1@-80,0+1200|A=2+1255
//
// Glyphs are named by their PostScript name, or "gid<N>" for fonts without
// glyph names. Offsets and vertical advances are omitted when zero.
func (r *Result) Log() string {
	var b strings.Builder
	for i, g := range r.Glyphs {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(g.Label())
		fmt.Fprintf(&b, "=%d", g.Cluster)
		if g.XOffset != 0 || g.YOffset != 0 {
			fmt.Fprintf(&b, "@%d,%d", g.XOffset, g.YOffset)
		}
		fmt.Fprintf(&b, "+%d", g.XAdvance)
		if g.YAdvance != 0 {
			fmt.Fprintf(&b, ",%d", g.YAdvance)
		}
	}
	return b.String()
}

// Label is the glyph's name, or "gid<N>" if it has none.
func (g Glyph) Label() string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("gid%d", g.GID)
}
