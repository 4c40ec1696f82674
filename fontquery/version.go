package fontquery

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/sfnt"
)

// Version returns the version number of a font, like "2.010".
//
// It is taken from the version string (name ID 5): the part before the first
// semicolon, without a leading "Version". Fonts without a usable version
// string report their head table revision instead.
func Version(data []byte) (string, error) {
	t, err := ReadTables(data)
	if err != nil {
		return "", err
	}
	if s, ok := t.Name(sfnt.NameIDVersion); ok {
		if v := VersionNumber(s); v != "" {
			return v, nil
		}
	}
	if h, ok := t.HeadInfo(); ok {
		tracer().Debugf("font has no version string, using head revision")
		return fmt.Sprintf("%.3f", h.Revision()), nil
	}
	return "", errFont("no version information")
}

// VersionNumber extracts the version number from an OpenType version string.
func VersionNumber(s string) string {
	s, _, _ = strings.Cut(s, ";")
	s = strings.TrimSpace(s)
	if len(s) >= 7 && strings.EqualFold(s[:7], "version") {
		s = strings.TrimSpace(s[7:])
	}
	return s
}
