package fontquery

import (
	"encoding/binary"
	"time"
)

// HeadTableInfo holds selected fields of table 'head'.
type HeadTableInfo struct {
	FontRevision uint32 // 16.16 fixed point
	MagicNumber  uint32
	UnitsPerEm   uint16
	Created      time.Time
	Modified     time.Time
}

const headTableSize = 54

// seconds between 1904-01-01 (the OpenType epoch) and 1970-01-01
const epochDelta = 2082844800

// Revision returns the font revision as a floating point number.
func (h HeadTableInfo) Revision() float64 {
	return float64(h.FontRevision) / 65536
}

// HeadInfo decodes table 'head'. It returns false if the table is missing or
// too short.
func (t Tables) HeadInfo() (HeadTableInfo, bool) {
	var h HeadTableInfo
	b, ok := t["head"]
	if !ok || len(b) < headTableSize {
		return h, false
	}
	h.FontRevision = binary.BigEndian.Uint32(b[4:8])
	h.MagicNumber = binary.BigEndian.Uint32(b[12:16])
	h.UnitsPerEm = binary.BigEndian.Uint16(b[18:20])
	h.Created = longDateTime(b[20:28])
	h.Modified = longDateTime(b[28:36])
	return h, true
}

func longDateTime(b []byte) time.Time {
	secs := int64(binary.BigEndian.Uint64(b))
	return time.Unix(secs-epochDelta, 0).UTC()
}
