/*
Package fontquery reads metadata from raw OpenType font binaries.

Queries work on the bytes of a single-font SFNT stream (TrueType or CFF
flavoured), as retrieved from a repository, without building a full font
model. The central query is [Version], which yields the version number a
font reports about itself.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontquery

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'notobot.fonts'
func tracer() tracing.Trace {
	return tracing.Select("notobot.fonts")
}

func errFont(x string) error {
	return fmt.Errorf("OpenType font: %s", x)
}

const (
	offsetTableSize = 12
	tableRecordSize = 16
)

// Tables is the table directory of a font, mapping table tags to table bytes.
type Tables map[string][]byte

// ReadTables decodes the table directory of an SFNT font. Tables whose
// records point outside of data are skipped.
func ReadTables(data []byte) (Tables, error) {
	if len(data) < offsetTableSize {
		return nil, errFont("font data too short")
	}
	switch tag := string(data[0:4]); tag {
	case "\x00\x01\x00\x00", "OTTO", "true":
	case "ttcf":
		return nil, errFont("font collections are not supported")
	default:
		return nil, errFont(fmt.Sprintf("unknown font signature %q", tag))
	}
	n := int(binary.BigEndian.Uint16(data[4:6]))
	if offsetTableSize+n*tableRecordSize > len(data) {
		return nil, errFont("table directory out of bounds")
	}
	tables := make(Tables, n)
	for i := range n {
		rec := data[offsetTableSize+i*tableRecordSize:]
		tag := string(rec[0:4])
		off := int(binary.BigEndian.Uint32(rec[8:12]))
		size := int(binary.BigEndian.Uint32(rec[12:16]))
		if off < 0 || size < 0 || off+size > len(data) {
			tracer().Debugf("table %q out of bounds", tag)
			continue
		}
		tables[tag] = data[off : off+size]
	}
	return tables, nil
}

// Tags returns the tags of all tables, sorted.
func (t Tables) Tags() []string {
	tags := make([]string, 0, len(t))
	for tag := range t {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func u16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}
