package font

import (
	"golang.org/x/text/encoding/charmap"
)

// baseTable is a 256-entry code-to-Unicode table for a simple font. Empty
// strings mark unmapped codes.
type baseTable [256]string

// baseEncoding returns the table for a named base encoding. WinAnsi and
// MacRoman are served from the x/text character maps (cp1252 and Mac OS
// Roman); Standard and MacExpert carry their own tables since no charmap
// matches them.
func baseEncoding(name string) baseTable {
	switch name {
	case "WinAnsiEncoding":
		return charmapTable(charmap.Windows1252)
	case "MacRomanEncoding":
		return charmapTable(charmap.Macintosh)
	case "MacExpertEncoding":
		return macExpertTable()
	case "StandardEncoding", "":
		return standardTable()
	default:
		return standardTable()
	}
}

// charmapTable lowers an x/text charmap into a baseTable.
func charmapTable(cm *charmap.Charmap) baseTable {
	var t baseTable
	for i := 0; i < 256; i++ {
		r := cm.DecodeByte(byte(i))
		if r == '�' && i != 0 {
			continue
		}
		if i < 0x20 {
			// Control codes never carry glyphs in simple fonts.
			continue
		}
		t[i] = string(r)
	}
	return t
}

// standardTable is Adobe StandardEncoding. ASCII mostly coincides, with
// quoteright at 0x27 and quoteleft at 0x60; the upper half holds
// punctuation, accents and ligatures at Adobe's positions.
func standardTable() baseTable {
	var t baseTable
	for i := 0x20; i < 0x7f; i++ {
		t[i] = string(rune(i))
	}
	t[0x27] = "’" // quoteright
	t[0x60] = "‘" // quoteleft

	high := map[byte]string{
		0xa1: "¡", 0xa2: "¢", 0xa3: "£", 0xa4: "⁄", 0xa5: "¥",
		0xa6: "ƒ", 0xa7: "§", 0xa8: "¤", 0xa9: "'", 0xaa: "“",
		0xab: "«", 0xac: "‹", 0xad: "›", 0xae: "ﬁ", 0xaf: "ﬂ",
		0xb1: "–", 0xb2: "†", 0xb3: "‡", 0xb4: "·", 0xb6: "¶",
		0xb7: "•", 0xb8: "‚", 0xb9: "„", 0xba: "”", 0xbb: "»",
		0xbc: "…", 0xbd: "‰", 0xbf: "¿",
		0xc1: "`", 0xc2: "´", 0xc3: "ˆ", 0xc4: "˜", 0xc5: "¯",
		0xc6: "˘", 0xc7: "˙", 0xc8: "¨", 0xca: "˚", 0xcb: "¸",
		0xcd: "˝", 0xce: "˛", 0xcf: "ˇ",
		0xd0: "—",
		0xe1: "Æ", 0xe3: "ª", 0xe8: "Ł", 0xe9: "Ø", 0xea: "Œ",
		0xeb: "º",
		0xf1: "æ", 0xf5: "ı", 0xf8: "ł", 0xf9: "ø", 0xfa: "œ",
		0xfb: "ß",
	}
	for code, s := range high {
		t[code] = s
	}
	return t
}

// macExpertTable covers the commonly seen slots of MacExpertEncoding:
// oldstyle and superior figures map to plain digits, fractions and the
// extra f-ligatures to their Unicode forms. The rest of the expert set has
// no text meaning and stays unmapped.
func macExpertTable() baseTable {
	var t baseTable
	t[0x20] = " "
	// Oldstyle figures at the digit positions.
	for i := 0; i <= 9; i++ {
		t[0x30+i] = string(rune('0' + i))
	}
	t[0x2c] = ","
	t[0x2e] = "."
	t[0x2f] = "⁄"
	t[0x24] = "$"
	t[0x3a] = ":"
	t[0x3b] = ";"
	t[0x2d] = "-"

	high := map[byte]string{
		0x56: "ﬁ", 0x57: "ﬂ", 0x58: "ﬀ", 0x59: "ﬃ", 0x5a: "ﬄ",
		0x47: "¼", 0x48: "½", 0x49: "¾",
		0x81: "¹", 0x82: "²", 0x83: "³",
		0xf6: "ı",
	}
	for code, s := range high {
		t[code] = s
	}
	return t
}

// applyDifferences overlays an /Encoding /Differences array onto a base
// table: an integer sets the next code, names assign glyphs to consecutive
// codes. Unknown glyph names clear the slot so decoding yields U+FFFD.
func applyDifferences(t *baseTable, diffs []interface{}) {
	code := 0
	for _, item := range diffs {
		switch v := item.(type) {
		case int:
			code = v
		case string:
			if code >= 0 && code < 256 {
				if r, ok := glyphToRune(v); ok {
					t[code] = string(r)
				} else {
					t[code] = ""
				}
			}
			code++
		}
	}
}
