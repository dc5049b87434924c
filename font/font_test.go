package font

import (
	"testing"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/internal/filters"
)

func noResolve(ref core.IndirectRef) (core.Object, error) {
	return core.Null{}, nil
}

func TestSimpleFontWinAnsi(t *testing.T) {
	dict := core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Helvetica"),
		"Encoding": core.Name("WinAnsiEncoding"),
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	if f.IsComposite() {
		t.Error("simple font reported composite")
	}
	if got := f.DecodeString([]byte("Hello")); got != "Hello" {
		t.Errorf("DecodeString = %q", got)
	}
	// 0x93-0x94 are the smart quotes in cp1252.
	if got := f.DecodeString([]byte{0x93, 0x41, 0x94}); got != "“A”" {
		t.Errorf("DecodeString(cp1252 quotes) = %q", got)
	}
}

func TestSimpleFontStandardEncoding(t *testing.T) {
	dict := core.Dict{
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Times-Roman"),
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	// StandardEncoding: 0x27 is quoteright, 0xb7 is bullet.
	if got := f.DecodeString([]byte{'a', 0x27, 'b'}); got != "a’b" {
		t.Errorf("quoteright = %q", got)
	}
	if got := f.DecodeString([]byte{0xb7}); got != "•" {
		t.Errorf("bullet = %q", got)
	}
}

func TestSimpleFontDifferences(t *testing.T) {
	dict := core.Dict{
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Custom"),
		"Encoding": core.Dict{
			"BaseEncoding": core.Name("WinAnsiEncoding"),
			"Differences": core.Array{
				core.Int(65), core.Name("bullet"), core.Name("emdash"),
				core.Int(97), core.Name("eacute"),
			},
		},
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	// Codes 65 and 66 are remapped, 67 keeps the base meaning.
	if got := f.DecodeString([]byte{65, 66, 67}); got != "•—C" {
		t.Errorf("differences = %q", got)
	}
	if got := f.DecodeString([]byte{97}); got != "é" {
		t.Errorf("eacute = %q", got)
	}
}

func TestSimpleFontUnknownGlyphYieldsReplacement(t *testing.T) {
	dict := core.Dict{
		"Subtype": core.Name("Type1"),
		"Encoding": core.Dict{
			"Differences": core.Array{core.Int(65), core.Name("nosuchglyph")},
		},
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.DecodeString([]byte{65}); got != "�" {
		t.Errorf("unknown glyph = %q, want U+FFFD", got)
	}
}

func TestSimpleFontToUnicodeOverride(t *testing.T) {
	cmapData := []byte(`begincmap
1 begincodespacerange <00> <FF> endcodespacerange
1 beginbfchar
<41> <00E9>
endbfchar
endcmap`)
	dict := core.Dict{
		"Subtype":   core.Name("Type1"),
		"Encoding":  core.Name("WinAnsiEncoding"),
		"ToUnicode": core.IndirectRef{Num: 9},
	}
	resolve := func(ref core.IndirectRef) (core.Object, error) {
		return &core.Stream{Dict: core.Dict{}, Raw: cmapData}, nil
	}
	f, err := Load("F1", dict, resolve)
	if err != nil {
		t.Fatal(err)
	}
	// Code 0x41 is overridden; 0x42 falls back to the base encoding.
	if got := f.DecodeString([]byte{0x41, 0x42}); got != "éB" {
		t.Errorf("override = %q", got)
	}
}

func TestSimpleFontWidths(t *testing.T) {
	dict := core.Dict{
		"Subtype":   core.Name("Type1"),
		"BaseFont":  core.Name("Custom"),
		"FirstChar": core.Int(65),
		"LastChar":  core.Int(67),
		"Widths":    core.Array{core.Int(600), core.Int(700), core.Int(800)},
		"FontDescriptor": core.Dict{
			"MissingWidth": core.Int(250),
		},
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	glyphs := f.Decode([]byte{65, 66, 67, 68})
	wants := []float64{600, 700, 800, 250}
	for i, want := range wants {
		if glyphs[i].Width != want {
			t.Errorf("glyph %d width = %v, want %v", i, glyphs[i].Width, want)
		}
	}
}

func TestWidthDefaultsToZero(t *testing.T) {
	// No /Widths, no /MissingWidth, and a glyph outside the standard
	// metric tables: the advance defaults to zero.
	dict := core.Dict{
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Custom"),
		"Encoding": core.Dict{
			"Differences": core.Array{core.Int(65), core.Name("bullet")},
		},
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	glyphs := f.Decode([]byte{65})
	if glyphs[0].Width != 0 {
		t.Errorf("width = %v, want 0", glyphs[0].Width)
	}
}

func TestStandard14Widths(t *testing.T) {
	dict := core.Dict{
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Helvetica"),
	}
	f, err := Load("F1", dict, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	glyphs := f.Decode([]byte("iW"))
	if glyphs[0].Width != 222 {
		t.Errorf("width of i = %v, want 222", glyphs[0].Width)
	}
	if glyphs[1].Width != 944 {
		t.Errorf("width of W = %v, want 944", glyphs[1].Width)
	}
}

func TestSpaceGlyphFlag(t *testing.T) {
	f, err := Load("F1", core.Dict{"Subtype": core.Name("Type1")}, noResolve)
	if err != nil {
		t.Fatal(err)
	}
	glyphs := f.Decode([]byte("a b"))
	if glyphs[0].IsSpace || !glyphs[1].IsSpace || glyphs[2].IsSpace {
		t.Errorf("IsSpace flags = %v %v %v", glyphs[0].IsSpace, glyphs[1].IsSpace, glyphs[2].IsSpace)
	}
}

// identityFont builds the Identity-H font used by the ToUnicode scenario
// tests.
func identityFont(t *testing.T, toUnicode string) *Font {
	t.Helper()
	stream := &core.Stream{
		Dict: core.Dict{"Filter": core.Name("FlateDecode")},
		Raw:  filters.FlateEncode([]byte(toUnicode)),
	}
	dict := core.Dict{
		"Subtype":  core.Name("Type0"),
		"BaseFont": core.Name("ABCDEF+NotoSans"),
		"Encoding": core.Name("Identity-H"),
		"DescendantFonts": core.Array{core.Dict{
			"Subtype": core.Name("CIDFontType2"),
			"DW":      core.Int(1000),
			"W": core.Array{
				core.Int(0x41), core.Array{core.Int(500), core.Int(600)},
				core.Int(0x100), core.Int(0x1ff), core.Int(250),
			},
		}},
		"ToUnicode": core.IndirectRef{Num: 9},
	}
	resolve := func(ref core.IndirectRef) (core.Object, error) {
		return stream, nil
	}
	f, err := Load("F0", dict, resolve)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestType0IdentityHWithToUnicode(t *testing.T) {
	f := identityFont(t, `begincmap
1 begincodespacerange <0000> <FFFF> endcodespacerange
2 beginbfchar
<0041> <0061>
<0042> <0062>
endbfchar
endcmap`)

	if !f.IsComposite() {
		t.Fatal("Type0 font not composite")
	}
	// The scenario from the ToUnicode contract: codes 00 41 00 42 decode
	// to "ab".
	if got := f.DecodeString([]byte{0x00, 0x41, 0x00, 0x42}); got != "ab" {
		t.Errorf("DecodeString = %q, want ab", got)
	}
}

func TestType0Widths(t *testing.T) {
	f := identityFont(t, "begincmap endcmap")
	glyphs := f.Decode([]byte{0x00, 0x41, 0x00, 0x42, 0x01, 0x80, 0x30, 0x00})
	wants := []float64{500, 600, 250, 1000}
	if len(glyphs) != 4 {
		t.Fatalf("got %d glyphs", len(glyphs))
	}
	for i, want := range wants {
		if glyphs[i].Width != want {
			t.Errorf("glyph %d width = %v, want %v", i, glyphs[i].Width, want)
		}
	}
}

func TestType0UnmappedYieldsReplacement(t *testing.T) {
	f := identityFont(t, "begincmap endcmap")
	if got := f.DecodeString([]byte{0x12, 0x34}); got != "�" {
		t.Errorf("unmapped CID = %q, want U+FFFD", got)
	}
}

func TestDetectStyle(t *testing.T) {
	tests := []struct {
		name string
		want StyleFlags
	}{
		{"Helvetica", StyleFlags{}},
		{"Helvetica-Bold", StyleFlags{Bold: true}},
		{"Times-BoldItalic", StyleFlags{Bold: true, Italic: true}},
		{"ABCDEF+Courier-Oblique", StyleFlags{Italic: true, Mono: true}},
		{"DejaVuSansMono", StyleFlags{Mono: true}},
	}
	for _, tt := range tests {
		if got := detectStyle(tt.name); got != tt.want {
			t.Errorf("detectStyle(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestGlyphToRune(t *testing.T) {
	tests := []struct {
		name string
		want rune
		ok   bool
	}{
		{"bullet", '•', true},
		{"eacute", 'é', true},
		{"uni20AC", '€', true},
		{"u1F600", '\U0001f600', true},
		{"three", '3', true},
		{"q", 'q', true},
		{"bogusname", 0, false},
	}
	for _, tt := range tests {
		r, ok := glyphToRune(tt.name)
		if ok != tt.ok || (ok && r != tt.want) {
			t.Errorf("glyphToRune(%q) = %q, %v", tt.name, r, ok)
		}
	}
}
