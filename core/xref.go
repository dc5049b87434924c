package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/inkstream/pdftext/logger"
)

// Sentinel errors for xref loading. Callers match with errors.Is.
var (
	ErrNoXref    = errors.New("pdf: startxref not found")
	ErrXRefCycle = errors.New("pdf: cycle in xref /Prev chain")
)

// EntryKind classifies a cross-reference entry.
type EntryKind int

const (
	// FreeEntry marks an object number on the free list; it never resolves.
	FreeEntry EntryKind = iota
	// InUseEntry points at an absolute byte offset in the file.
	InUseEntry
	// CompressedEntry points into an object stream.
	CompressedEntry
)

// XRefEntry locates one object. For InUseEntry, Offset and Gen are valid.
// For CompressedEntry, StreamNum names the object stream and StreamIdx the
// slot within it; compressed objects always have generation 0.
type XRefEntry struct {
	Kind      EntryKind
	Offset    int64
	Gen       int
	StreamNum int
	StreamIdx int
}

// XRefTable is the live cross-reference table: the union of every
// incremental section with newer entries shadowing older ones.
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer Dict
	// Size is the effective table size: the largest /Size seen across the
	// chain, or one past the largest rebuilt object number after repair.
	Size int
	// Repaired is set when the table was rebuilt by scanning the file.
	Repaired bool
}

// Lookup returns the entry for an object number.
func (x *XRefTable) Lookup(num int) (XRefEntry, bool) {
	e, ok := x.Entries[num]
	return e, ok
}

// LoadXRef locates and parses the complete cross-reference for data,
// following the /Prev chain across incremental updates and merging sections
// newest-first. In permissive mode a missing or unparseable table triggers a
// full-file scan rebuild.
func LoadXRef(data []byte, mode Mode) (*XRefTable, error) {
	offset, err := findStartXRef(data)
	if err != nil {
		if mode == Permissive {
			logger.Debug("xref: startxref missing, rebuilding by scan", "err", err)
			return ScanRebuild(data)
		}
		return nil, err
	}

	table, err := loadChain(data, offset, mode)
	if err != nil {
		if mode == Permissive && !errors.Is(err, ErrXRefCycle) {
			logger.Debug("xref: table unusable, rebuilding by scan", "err", err)
			return ScanRebuild(data)
		}
		return nil, err
	}
	return table, nil
}

// findStartXRef reads the file tail and extracts the offset recorded after
// the last startxref keyword.
func findStartXRef(data []byte) (int, error) {
	tail := data
	if len(tail) > 1024 {
		tail = tail[len(tail)-1024:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, ErrNoXref
	}

	lex := NewLexer(tail)
	lex.Seek(idx + len("startxref"))
	tok, err := lex.Next()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("%w: malformed offset after startxref", ErrNoXref)
	}
	offset, err := strconv.Atoi(string(tok.Value))
	if err != nil || offset < 0 || offset >= len(data) {
		return 0, fmt.Errorf("%w: offset %q out of range", ErrNoXref, tok.Value)
	}
	return offset, nil
}

// loadChain walks the /Prev chain starting at offset. Sections are processed
// newest first; an entry is only recorded if no newer section claimed the
// object number, which gives incremental updates their shadowing semantics.
func loadChain(data []byte, offset int, mode Mode) (*XRefTable, error) {
	table := &XRefTable{Entries: make(map[int]XRefEntry), Trailer: make(Dict)}
	visited := make(map[int]bool)

	for {
		if visited[offset] {
			if mode == Permissive {
				logger.Debug("xref: /Prev cycle detected, truncating chain", "offset", offset)
				break
			}
			return nil, fmt.Errorf("%w at offset %d", ErrXRefCycle, offset)
		}
		visited[offset] = true

		entries, trailer, err := parseSection(data, offset, mode)
		if err != nil {
			return nil, err
		}

		// Hybrid-reference files: a classic section may carry /XRefStm
		// pointing at a stream whose entries take precedence over the
		// classic ones of the same revision.
		if stm, ok := trailer.Int("XRefStm"); ok {
			if stmEntries, _, stmErr := parseSection(data, int(stm), mode); stmErr == nil {
				mergeEntries(table.Entries, stmEntries)
			} else if mode != Permissive {
				return nil, fmt.Errorf("xref: /XRefStm: %w", stmErr)
			} else {
				logger.Debug("xref: unusable /XRefStm section", "err", stmErr)
			}
		}

		mergeEntries(table.Entries, entries)
		mergeTrailer(table.Trailer, trailer)
		if size, ok := trailer.Int("Size"); ok && int(size) > table.Size {
			table.Size = int(size)
		}

		prev, ok := trailer.Int("Prev")
		if !ok {
			break
		}
		if prev < 0 || int(prev) >= len(data) {
			if mode == Permissive {
				logger.Debug("xref: /Prev out of range, truncating chain", "prev", prev)
				break
			}
			return nil, fmt.Errorf("xref: /Prev offset %d out of range", prev)
		}
		offset = int(prev)
	}

	for num := range table.Entries {
		if num >= table.Size {
			table.Size = num + 1
		}
	}
	return table, nil
}

// parseSection parses one xref section at offset, which is either a classic
// table (starting with the xref keyword) or an xref stream object.
func parseSection(data []byte, offset int, mode Mode) (map[int]XRefEntry, Dict, error) {
	lex := NewLexer(data)
	lex.Seek(offset)
	tok, err := lex.Next()
	if err != nil {
		return nil, nil, fmt.Errorf("xref section at offset %d: %w", offset, err)
	}
	if tok.Type == TokenKeyword && string(tok.Value) == "xref" {
		return parseClassicSection(data, lex.Pos(), mode)
	}
	return parseXRefStream(data, offset, mode)
}

// parseClassicSection parses the subsections and trailer of a classic table.
// pos sits just past the xref keyword.
func parseClassicSection(data []byte, pos int, mode Mode) (map[int]XRefEntry, Dict, error) {
	entries := make(map[int]XRefEntry)
	lex := NewLexer(data)
	lex.Seek(pos)

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, nil, fmt.Errorf("xref subsection header: %w", err)
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			trailer, err := parseTrailer(data, lex.Pos(), mode)
			if err != nil {
				return nil, nil, err
			}
			return entries, trailer, nil
		}
		if tok.Type != TokenInteger {
			return nil, nil, fmt.Errorf("xref: expected subsection start at offset %d", tok.Pos)
		}
		start, _ := strconv.Atoi(string(tok.Value))

		tok, err = lex.Next()
		if err != nil || tok.Type != TokenInteger {
			return nil, nil, fmt.Errorf("xref: expected subsection count at offset %d", tok.Pos)
		}
		count, _ := strconv.Atoi(string(tok.Value))

		for i := 0; i < count; i++ {
			entry, err := parseClassicEntry(lex)
			if err != nil {
				return nil, nil, fmt.Errorf("xref entry %d of subsection %d: %w", i, start, err)
			}
			entries[start+i] = entry
		}
	}
}

// parseClassicEntry reads one 20-byte entry "oooooooooo ggggg n/f". Parsing
// is token based, so short or padded fields are tolerated.
func parseClassicEntry(lex *Lexer) (XRefEntry, error) {
	offTok, err := lex.Next()
	if err != nil || offTok.Type != TokenInteger {
		return XRefEntry{}, fmt.Errorf("missing offset field")
	}
	genTok, err := lex.Next()
	if err != nil || genTok.Type != TokenInteger {
		return XRefEntry{}, fmt.Errorf("missing generation field")
	}
	flagTok, err := lex.Next()
	if err != nil || flagTok.Type != TokenKeyword {
		return XRefEntry{}, fmt.Errorf("missing in-use flag")
	}

	offset, _ := strconv.ParseInt(string(offTok.Value), 10, 64)
	gen, _ := strconv.Atoi(string(genTok.Value))

	switch string(flagTok.Value) {
	case "n":
		return XRefEntry{Kind: InUseEntry, Offset: offset, Gen: gen}, nil
	case "f":
		return XRefEntry{Kind: FreeEntry, Offset: offset, Gen: gen}, nil
	default:
		return XRefEntry{}, fmt.Errorf("invalid in-use flag %q", flagTok.Value)
	}
}

// parseTrailer parses the trailer dictionary following the trailer keyword.
func parseTrailer(data []byte, pos int, mode Mode) (Dict, error) {
	p := NewParser(data, mode)
	p.Seek(pos)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is %s, not a dictionary", obj.Kind())
	}
	return dict, nil
}

// mergeEntries copies entries from src that dst does not already hold.
// Since sections are processed newest first, absent-only insertion makes the
// newest definition win.
func mergeEntries(dst, src map[int]XRefEntry) {
	for num, entry := range src {
		if _, exists := dst[num]; !exists {
			dst[num] = entry
		}
	}
}

// mergeTrailer fills keys absent from dst. The newest trailer wins for keys
// it defines; older revisions supply /Root or /Info when a sloppy updater
// dropped them.
func mergeTrailer(dst, src Dict) {
	for key, val := range src {
		if key == "Prev" || key == "XRefStm" {
			continue
		}
		if _, exists := dst[key]; !exists {
			dst[key] = val
		}
	}
}

// ScanRebuild walks the whole file recording every "N G obj" header as an
// in-use entry; later occurrences win, mirroring incremental-update order.
// The trailer is recovered from the last trailer dictionary in the file or,
// failing that, by locating a /Type /Catalog object.
func ScanRebuild(data []byte) (*XRefTable, error) {
	table := &XRefTable{
		Entries:  make(map[int]XRefEntry),
		Trailer:  make(Dict),
		Repaired: true,
	}

	for pos := 0; pos < len(data); {
		idx := bytes.Index(data[pos:], []byte("obj"))
		if idx < 0 {
			break
		}
		at := pos + idx
		pos = at + 3
		if num, gen, headStart, ok := matchObjHeader(data, at); ok {
			table.Entries[num] = XRefEntry{Kind: InUseEntry, Offset: int64(headStart), Gen: gen}
		}
	}
	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("%w: no object headers found by scan", ErrNoXref)
	}

	for num := range table.Entries {
		if num >= table.Size {
			table.Size = num + 1
		}
	}

	if trailer, ok := recoverTrailer(data); ok {
		table.Trailer = trailer
	} else if root, ok := findCatalog(data, table); ok {
		table.Trailer["Root"] = root
		logger.Debug("xref: trailer rebuilt from catalog object", "root", root)
	}
	table.Trailer["Size"] = Int(table.Size)
	return table, nil
}

// matchObjHeader verifies that the obj keyword at offset at is preceded by
// "num gen" and followed by a non-regular byte, and returns the numbers plus
// the offset of the header start.
func matchObjHeader(data []byte, at int) (num, gen, start int, ok bool) {
	if at+3 < len(data) && isRegular(data[at+3]) {
		return 0, 0, 0, false
	}
	i := at - 1
	skipSpace := func() bool {
		n := 0
		for i >= 0 && (data[i] == ' ' || data[i] == '\t' || data[i] == '\r' || data[i] == '\n') {
			i--
			n++
		}
		return n > 0
	}
	readInt := func() (int, int, bool) {
		end := i
		for i >= 0 && isDigit(data[i]) {
			i--
		}
		if i == end {
			return 0, 0, false
		}
		v, err := strconv.Atoi(string(data[i+1 : end+1]))
		return v, i + 1, err == nil
	}

	if !skipSpace() {
		return 0, 0, 0, false
	}
	gen, _, ok = readInt()
	if !ok {
		return 0, 0, 0, false
	}
	if !skipSpace() {
		return 0, 0, 0, false
	}
	num, start, ok = readInt()
	if !ok {
		return 0, 0, 0, false
	}
	if start > 0 && isRegular(data[start-1]) {
		return 0, 0, 0, false
	}
	return num, gen, start, true
}

// recoverTrailer parses the dictionary after the last trailer keyword that
// yields a usable /Root.
func recoverTrailer(data []byte) (Dict, bool) {
	for end := len(data); end > 0; {
		idx := bytes.LastIndex(data[:end], []byte("trailer"))
		if idx < 0 {
			return nil, false
		}
		end = idx
		dict, err := parseTrailer(data, idx+len("trailer"), Permissive)
		if err == nil && dict.Has("Root") {
			return dict, true
		}
	}
	return nil, false
}

// findCatalog parses rebuilt objects looking for the document catalog.
func findCatalog(data []byte, table *XRefTable) (IndirectRef, bool) {
	for num, entry := range table.Entries {
		if entry.Kind != InUseEntry {
			continue
		}
		p := NewParser(data, Permissive)
		p.Seek(int(entry.Offset))
		ind, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		if dict, ok := ind.Object.(Dict); ok {
			if typ, ok := dict.Name("Type"); ok && typ == "Catalog" {
				return IndirectRef{Num: num, Gen: entry.Gen}, true
			}
		}
	}
	return IndirectRef{}, false
}
