package font

import (
	"fmt"
	"unicode/utf16"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/logger"
)

// CMap is a character map: codespace ranges defining the variable-width
// code structure, plus mappings from codes to Unicode (bfchar/bfrange) or
// to CIDs (cidchar/cidrange). The same representation serves both embedded
// /Encoding CMaps and /ToUnicode CMaps.
type CMap struct {
	// codespaces grouped by code length in bytes (index 0 = 1-byte codes).
	codespaces [4][]codespaceRange

	bfChars  map[codeKey]string
	bfRanges []bfRange

	cidChars  map[codeKey]uint32
	cidRanges []cidRange

	vertical bool
}

// codeKey identifies a code together with its byte length, so <41> and
// <0041> stay distinct.
type codeKey struct {
	code uint32
	n    int
}

type codespaceRange struct {
	lo, hi uint32
}

type bfRange struct {
	lo, hi uint32
	n      int
	// dst is the UTF-16BE target of lo; the final code unit increments
	// across the range, carrying into higher units.
	dst []byte
	// dstArray lists explicit per-code targets when the range used the
	// array form.
	dstArray []string
}

type cidRange struct {
	lo, hi uint32
	n      int
	cid    uint32
}

// NewCMap returns an empty CMap.
func NewCMap() *CMap {
	return &CMap{
		bfChars:  make(map[codeKey]string),
		cidChars: make(map[codeKey]uint32),
	}
}

// IdentityCMap returns the predefined Identity-H or Identity-V map:
// two-byte codes over the full range, CID equal to code.
func IdentityCMap(vertical bool) *CMap {
	cm := NewCMap()
	cm.codespaces[1] = []codespaceRange{{lo: 0x0000, hi: 0xffff}}
	cm.cidRanges = []cidRange{{lo: 0x0000, hi: 0xffff, n: 2, cid: 0}}
	cm.vertical = vertical
	return cm
}

// Vertical reports whether the map declares vertical writing mode.
func (cm *CMap) Vertical() bool { return cm.vertical }

// HasCodespaces reports whether any codespace ranges were declared.
func (cm *CMap) HasCodespaces() bool {
	for _, spaces := range cm.codespaces {
		if len(spaces) > 0 {
			return true
		}
	}
	return false
}

// ParseCMapStream decodes and parses an embedded CMap stream.
func ParseCMapStream(stream *core.Stream) (*CMap, error) {
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode cmap stream: %w", err)
	}
	return ParseCMap(data)
}

// ParseCMap parses CMap data. The grammar is PostScript-shaped, so parsing
// is driven by keywords: operands collect on a stack and the begin...end
// operators consume what they need. Unknown constructs are skipped.
func ParseCMap(data []byte) (*CMap, error) {
	cm := NewCMap()
	lex := core.NewLexer(data)

	// Operand stack of recent tokens, kept small; only hex strings, names,
	// integers and arrays matter to the sections we care about.
	var stack []core.Token

	for {
		tok, err := lex.Next()
		if err != nil {
			// CMap streams embed binary usecmap payloads rarely; skip one
			// byte and continue rather than failing the whole map.
			lex.Seek(lex.Pos() + 1)
			continue
		}
		if tok.Type == core.TokenEOF {
			break
		}

		if tok.Type != core.TokenKeyword {
			stack = append(stack, tok)
			if len(stack) > 16 {
				stack = stack[len(stack)-16:]
			}
			continue
		}

		switch string(tok.Value) {
		case "begincodespacerange":
			if err := cm.parseCodespaces(lex); err != nil {
				return nil, err
			}
		case "beginbfchar":
			if err := cm.parseBfChars(lex); err != nil {
				return nil, err
			}
		case "beginbfrange":
			if err := cm.parseBfRanges(lex); err != nil {
				return nil, err
			}
		case "begincidchar":
			if err := cm.parseCidChars(lex); err != nil {
				return nil, err
			}
		case "begincidrange":
			if err := cm.parseCidRanges(lex); err != nil {
				return nil, err
			}
		case "usecmap":
			// The operand is a name like /Identity-H pushed just before.
			if name, ok := lastName(stack); ok {
				cm.useCMap(name)
			}
			stack = stack[:0]
		case "endcmap":
			return cm, nil
		default:
			stack = stack[:0]
		}
	}
	return cm, nil
}

func lastName(stack []core.Token) (string, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Type == core.TokenName {
			return string(stack[i].Value), true
		}
	}
	return "", false
}

// useCMap merges a predefined base map. Only the identity maps are built
// in; other registered CJK maps are not shipped and are logged and skipped.
func (cm *CMap) useCMap(name string) {
	switch name {
	case "Identity-H", "Identity-V":
		base := IdentityCMap(name == "Identity-V")
		for i := range base.codespaces {
			cm.codespaces[i] = append(cm.codespaces[i], base.codespaces[i]...)
		}
		cm.cidRanges = append(cm.cidRanges, base.cidRanges...)
		cm.vertical = cm.vertical || base.vertical
	default:
		logger.Debug("cmap: usecmap of unavailable base map", "name", name)
	}
}

// hexOperand interprets a hex-string token as a big-endian code with its
// byte length.
func hexOperand(tok core.Token) (uint32, int, bool) {
	if tok.Type != core.TokenHexString || len(tok.Value) == 0 || len(tok.Value) > 4 {
		return 0, 0, false
	}
	var v uint32
	for _, b := range tok.Value {
		v = v<<8 | uint32(b)
	}
	return v, len(tok.Value), true
}

func (cm *CMap) parseCodespaces(lex *core.Lexer) error {
	for {
		lo, err := lex.Next()
		if err != nil {
			return err
		}
		if lo.Type == core.TokenKeyword && string(lo.Value) == "endcodespacerange" {
			return nil
		}
		hi, err := lex.Next()
		if err != nil {
			return err
		}
		loV, loN, ok1 := hexOperand(lo)
		hiV, hiN, ok2 := hexOperand(hi)
		if !ok1 || !ok2 || loN != hiN {
			return fmt.Errorf("malformed codespace range")
		}
		cm.codespaces[loN-1] = append(cm.codespaces[loN-1], codespaceRange{lo: loV, hi: hiV})
	}
}

func (cm *CMap) parseBfChars(lex *core.Lexer) error {
	for {
		src, err := lex.Next()
		if err != nil {
			return err
		}
		if src.Type == core.TokenKeyword && string(src.Value) == "endbfchar" {
			return nil
		}
		dst, err := lex.Next()
		if err != nil {
			return err
		}
		code, n, ok := hexOperand(src)
		if !ok {
			return fmt.Errorf("malformed bfchar source")
		}
		switch dst.Type {
		case core.TokenHexString:
			cm.bfChars[codeKey{code, n}] = utf16BEToString(dst.Value)
		case core.TokenName:
			// A glyph-name destination appears in some generators.
			if r, ok := glyphToRune(string(dst.Value)); ok {
				cm.bfChars[codeKey{code, n}] = string(r)
			}
		}
	}
}

func (cm *CMap) parseBfRanges(lex *core.Lexer) error {
	for {
		lo, err := lex.Next()
		if err != nil {
			return err
		}
		if lo.Type == core.TokenKeyword && string(lo.Value) == "endbfrange" {
			return nil
		}
		hi, err := lex.Next()
		if err != nil {
			return err
		}
		loV, loN, ok1 := hexOperand(lo)
		hiV, hiN, ok2 := hexOperand(hi)
		if !ok1 || !ok2 || loN != hiN {
			return fmt.Errorf("malformed bfrange bounds")
		}

		dst, err := lex.Next()
		if err != nil {
			return err
		}
		switch dst.Type {
		case core.TokenHexString:
			cm.bfRanges = append(cm.bfRanges, bfRange{
				lo: loV, hi: hiV, n: loN,
				dst: append([]byte(nil), dst.Value...),
			})
		case core.TokenArrayStart:
			var targets []string
			for {
				elem, err := lex.Next()
				if err != nil {
					return err
				}
				if elem.Type == core.TokenArrayEnd {
					break
				}
				if elem.Type == core.TokenHexString {
					targets = append(targets, utf16BEToString(elem.Value))
				}
			}
			cm.bfRanges = append(cm.bfRanges, bfRange{lo: loV, hi: hiV, n: loN, dstArray: targets})
		default:
			return fmt.Errorf("malformed bfrange target")
		}
	}
}

func (cm *CMap) parseCidChars(lex *core.Lexer) error {
	for {
		src, err := lex.Next()
		if err != nil {
			return err
		}
		if src.Type == core.TokenKeyword && string(src.Value) == "endcidchar" {
			return nil
		}
		dst, err := lex.Next()
		if err != nil {
			return err
		}
		code, n, ok := hexOperand(src)
		if !ok || dst.Type != core.TokenInteger {
			return fmt.Errorf("malformed cidchar")
		}
		cm.cidChars[codeKey{code, n}] = parseUint(dst.Value)
	}
}

func (cm *CMap) parseCidRanges(lex *core.Lexer) error {
	for {
		lo, err := lex.Next()
		if err != nil {
			return err
		}
		if lo.Type == core.TokenKeyword && string(lo.Value) == "endcidrange" {
			return nil
		}
		hi, err := lex.Next()
		if err != nil {
			return err
		}
		cid, err := lex.Next()
		if err != nil {
			return err
		}
		loV, loN, ok1 := hexOperand(lo)
		hiV, hiN, ok2 := hexOperand(hi)
		if !ok1 || !ok2 || loN != hiN || cid.Type != core.TokenInteger {
			return fmt.Errorf("malformed cidrange")
		}
		cm.cidRanges = append(cm.cidRanges, cidRange{lo: loV, hi: hiV, n: loN, cid: parseUint(cid.Value)})
	}
}

func parseUint(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + uint32(c-'0')
	}
	return v
}

// NextCode consumes one code from data using the codespace ranges, matching
// the longest applicable range greedily. When nothing matches, one byte is
// consumed so decoding always progresses.
func (cm *CMap) NextCode(data []byte) (code uint32, n int, ok bool) {
	max := 4
	if len(data) < max {
		max = len(data)
	}
	for n := max; n >= 1; n-- {
		var v uint32
		for _, b := range data[:n] {
			v = v<<8 | uint32(b)
		}
		for _, space := range cm.codespaces[n-1] {
			if v >= space.lo && v <= space.hi {
				return v, n, true
			}
		}
	}
	if len(data) == 0 {
		return 0, 0, false
	}
	return uint32(data[0]), 1, false
}

// Unicode returns the Unicode expansion of a code of length n, if mapped.
func (cm *CMap) Unicode(code uint32, n int) (string, bool) {
	if s, ok := cm.bfChars[codeKey{code, n}]; ok {
		return s, true
	}
	for _, r := range cm.bfRanges {
		if r.n != n || code < r.lo || code > r.hi {
			continue
		}
		offset := code - r.lo
		if r.dstArray != nil {
			if int(offset) < len(r.dstArray) {
				return r.dstArray[offset], true
			}
			return "", false
		}
		return incrementUTF16BE(r.dst, offset), true
	}
	return "", false
}

// CID maps a code of length n to its character identifier.
func (cm *CMap) CID(code uint32, n int) (uint32, bool) {
	if cid, ok := cm.cidChars[codeKey{code, n}]; ok {
		return cid, true
	}
	for _, r := range cm.cidRanges {
		if r.n == n && code >= r.lo && code <= r.hi {
			return r.cid + (code - r.lo), true
		}
	}
	return 0, false
}

// incrementUTF16BE adds offset to the final code unit of a UTF-16BE string,
// carrying into higher bytes as required by the bfrange auto-increment rule.
func incrementUTF16BE(dst []byte, offset uint32) string {
	if len(dst) == 0 {
		return ""
	}
	out := append([]byte(nil), dst...)
	carry := offset
	for i := len(out) - 1; i >= 0 && carry > 0; i-- {
		sum := uint32(out[i]) + carry
		out[i] = byte(sum)
		carry = sum >> 8
	}
	return utf16BEToString(out)
}

// utf16BEToString decodes UTF-16BE bytes, including surrogate pairs. An odd
// trailing byte is dropped.
func utf16BEToString(b []byte) string {
	if len(b) == 1 {
		// Single-byte targets appear in sloppy ToUnicode maps; treat the
		// byte as a code point.
		return string(rune(b[0]))
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

// Merge overlays other onto cm: other's mappings win on conflict. Used when
// a ToUnicode map refines an encoding map.
func (cm *CMap) Merge(other *CMap) {
	if other == nil {
		return
	}
	for k, v := range other.bfChars {
		cm.bfChars[k] = v
	}
	cm.bfRanges = append(other.bfRanges, cm.bfRanges...)
	for k, v := range other.cidChars {
		cm.cidChars[k] = v
	}
	cm.cidRanges = append(other.cidRanges, cm.cidRanges...)
	for i := range other.codespaces {
		cm.codespaces[i] = append(cm.codespaces[i], other.codespaces[i]...)
	}
}
