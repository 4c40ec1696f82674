package fontquery

import (
	"fmt"
	"iter"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

type nameRecord struct {
	platform uint16
	encoding uint16
	language uint16
	name     sfnt.NameID
}

const (
	platformUnicode   = 0
	platformMacintosh = 1
	platformWindows   = 3
)

// decoder returns a decoding function for the record's encoding, or nil if
// the encoding is not supported.
func (r nameRecord) decoder() func([]byte) (string, error) {
	switch {
	case r.platform == platformUnicode,
		r.platform == platformWindows && (r.encoding == 1 || r.encoding == 10):
		return decodeUTF16
	case r.platform == platformMacintosh && r.encoding == 0:
		return decodeMacRoman
	}
	return nil
}

// Names yields the decoded (nameID, value) pairs of table 'name'.
// Windows and Unicode records come first, as they are preferred; Macintosh
// records follow. Malformed records are skipped.
func (t Tables) Names() iter.Seq2[sfnt.NameID, string] {
	b := t.nameTable()
	return func(yield func(sfnt.NameID, string) bool) {
		if b == nil {
			return
		}
		count := int(u16(b[2:4]))
		storage := int(u16(b[4:6]))
		for _, mac := range []bool{false, true} {
			for i := range count {
				rec := b[nameHeaderSize+i*nameRecordSize:]
				r := nameRecord{
					platform: u16(rec[0:2]),
					encoding: u16(rec[2:4]),
					language: u16(rec[4:6]),
					name:     sfnt.NameID(u16(rec[6:8])),
				}
				if (r.platform == platformMacintosh) != mac {
					continue
				}
				decode := r.decoder()
				if decode == nil {
					continue
				}
				start := storage + int(u16(rec[10:12]))
				end := start + int(u16(rec[8:10]))
				if end > len(b) {
					continue
				}
				s, err := decode(b[start:end])
				if err != nil || s == "" {
					continue
				}
				if !yield(r.name, s) {
					return
				}
			}
		}
	}
}

// Name returns the first decodable value for name ID id.
func (t Tables) Name(id sfnt.NameID) (string, bool) {
	for nid, s := range t.Names() {
		if nid == id {
			return s, true
		}
	}
	return "", false
}

func (t Tables) nameTable() []byte {
	b, ok := t["name"]
	if !ok {
		tracer().Debugf("no name table found in font")
		return nil
	}
	if len(b) < nameHeaderSize {
		tracer().Debugf("name table too short: %d", len(b))
		return nil
	}
	count := int(u16(b[2:4]))
	if storage := int(u16(b[4:6])); storage > len(b) {
		tracer().Debugf("name table invalid string offset: %d", storage)
		return nil
	}
	if nameHeaderSize+count*nameRecordSize > len(b) {
		tracer().Debugf("name table record section out of bounds: count=%d", count)
		return nil
	}
	return b
}

// NameInfo collects the font's family, subfamily, full name and version.
func NameInfo(data []byte) (map[string]string, error) {
	t, err := ReadTables(data)
	if err != nil {
		return nil, err
	}
	keys := map[sfnt.NameID]string{
		sfnt.NameIDFamily:    "family",
		sfnt.NameIDSubfamily: "subfamily",
		sfnt.NameIDFull:      "fullname",
		sfnt.NameIDVersion:   "version",
	}
	info := make(map[string]string)
	for nid, s := range t.Names() {
		if k, ok := keys[nid]; ok {
			if _, seen := info[k]; !seen {
				info[k] = s
			}
		}
	}
	return info, nil
}

func decodeUTF16(b []byte) (string, error) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	s, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}

func decodeMacRoman(b []byte) (string, error) {
	s, err := charmap.Macintosh.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding Mac Roman error: %v", err)
	}
	return string(s), nil
}
