package font

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Glyph is one decoded unit of a show string: the character code consumed,
// its Unicode expansion, and its advance width in thousandths of text-space
// units.
type Glyph struct {
	Code    uint32
	Text    string
	Width   float64
	IsSpace bool // single-byte code 32; word spacing applies only here
}

// Font decodes show-strings into Unicode and answers width queries. Simple
// fonts use a 256-entry table; composite fonts consume variable-width codes
// through their encoding CMap.
type Font struct {
	Name     string // resource name, e.g. F1
	BaseFont string
	Subtype  string

	composite bool

	// Simple-font state.
	table        baseTable
	widths       [256]float64
	hasWidths    bool
	missingWidth float64

	// Composite-font state.
	encoding  *CMap
	cidWidths []cidWidthRange
	defaultW  float64
	vertical  bool

	// ToUnicode overrides everything it maps, for either kind.
	toUnicode *CMap

	flags StyleFlags
}

// cidWidthRange is a parsed /W entry: either an explicit width list
// starting at First, or a single width covering First..Last.
type cidWidthRange struct {
	First  uint32
	Last   uint32
	Width  float64
	Widths []float64
}

// StyleFlags describes the typeface style, recovered from the font name
// and descriptor for the Markdown emphasis pass.
type StyleFlags struct {
	Bold   bool
	Italic bool
	Mono   bool
}

// IsComposite reports whether the font is CID-keyed.
func (f *Font) IsComposite() bool { return f.composite }

// Vertical reports vertical writing mode (Identity-V encodings).
func (f *Font) Vertical() bool { return f.vertical }

// Style returns the typeface style flags.
func (f *Font) Style() StyleFlags { return f.flags }

// Decode expands a show string to glyphs. Every input byte is consumed:
// unmapped codes expand to U+FFFD so downstream layers always see the same
// glyph count regardless of how broken the encoding data is.
func (f *Font) Decode(data []byte) []Glyph {
	if f.composite {
		return f.decodeComposite(data)
	}
	return f.decodeSimple(data)
}

func (f *Font) decodeSimple(data []byte) []Glyph {
	glyphs := make([]Glyph, 0, len(data))
	for _, b := range data {
		code := uint32(b)
		g := Glyph{
			Code:    code,
			Width:   f.simpleWidth(b),
			IsSpace: b == ' ',
		}
		if f.toUnicode != nil {
			if s, ok := f.toUnicode.Unicode(code, 1); ok {
				g.Text = s
				glyphs = append(glyphs, g)
				continue
			}
		}
		if s := f.table[b]; s != "" {
			g.Text = s
		} else {
			g.Text = "�"
		}
		glyphs = append(glyphs, g)
	}
	return glyphs
}

func (f *Font) decodeComposite(data []byte) []Glyph {
	var glyphs []Glyph
	enc := f.encoding
	if enc == nil {
		enc = IdentityCMap(false)
	}
	for len(data) > 0 {
		code, n, matched := enc.NextCode(data)
		data = data[n:]

		cid, haveCID := enc.CID(code, n)
		if !haveCID {
			cid = code
		}
		g := Glyph{Code: code, Width: f.cidWidth(cid)}

		if f.toUnicode != nil {
			if s, ok := f.toUnicode.Unicode(code, n); ok {
				g.Text = s
				glyphs = append(glyphs, g)
				continue
			}
		}
		if !matched {
			g.Text = "�"
			glyphs = append(glyphs, g)
			continue
		}
		if s, ok := enc.Unicode(code, n); ok {
			g.Text = s
		} else {
			g.Text = "�"
		}
		glyphs = append(glyphs, g)
	}
	return glyphs
}

// DecodeString returns the NFC-normalized text of a show string.
func (f *Font) DecodeString(data []byte) string {
	var sb strings.Builder
	for _, g := range f.Decode(data) {
		sb.WriteString(g.Text)
	}
	return norm.NFC.String(sb.String())
}

// simpleWidth returns the advance for a single-byte code.
func (f *Font) simpleWidth(b byte) float64 {
	if f.hasWidths {
		if w := f.widths[b]; w != 0 {
			return w
		}
		return f.missingWidth
	}
	// Standard-14 metrics, keyed by the decoded rune. Codes outside every
	// width source fall back to /MissingWidth, whose own default is zero.
	if s := f.table[b]; s != "" {
		if w, ok := standardWidth(f.BaseFont, []rune(s)[0]); ok {
			return w
		}
	}
	return f.missingWidth
}

// cidWidth returns the advance for a CID, defaulting to /DW.
func (f *Font) cidWidth(cid uint32) float64 {
	for _, r := range f.cidWidths {
		if r.Widths != nil {
			if cid >= r.First && cid < r.First+uint32(len(r.Widths)) {
				return r.Widths[cid-r.First]
			}
			continue
		}
		if cid >= r.First && cid <= r.Last {
			return r.Width
		}
	}
	return f.defaultW
}

// detectStyle recovers style flags from a PostScript font name like
// ABCDEF+Times-BoldItalic.
func detectStyle(baseFont string) StyleFlags {
	name := strings.ToLower(baseFont)
	if plus := strings.IndexByte(name, '+'); plus >= 0 && plus == 6 {
		name = name[plus+1:]
	}
	return StyleFlags{
		Bold: strings.Contains(name, "bold") || strings.Contains(name, "black") ||
			strings.Contains(name, "heavy") || strings.Contains(name, "semibold"),
		Italic: strings.Contains(name, "italic") || strings.Contains(name, "oblique"),
		Mono: strings.Contains(name, "mono") || strings.Contains(name, "courier") ||
			strings.Contains(name, "consol"),
	}
}
