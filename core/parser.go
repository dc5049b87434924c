package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// Mode selects how much malformation the parsing layers tolerate.
type Mode int

const (
	// Strict surfaces every syntactic violation as an error.
	Strict Mode = iota
	// Permissive logs, resynchronizes and continues wherever possible.
	Permissive
)

// ReferenceResolver resolves indirect references. The object parser needs one
// to read streams whose /Length is itself an indirect object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser builds Objects from the token stream of a Lexer. The same parser
// type handles body objects, trailer dictionaries and object-stream payloads;
// the xref layer positions it with Seek before each indirect object.
type Parser struct {
	lex      *Lexer
	mode     Mode
	resolver ReferenceResolver

	cur  Token
	peek Token

	// Damaged is set when permissive parsing had to resynchronize.
	Damaged bool
}

// NewParser creates a parser over data in the given mode.
func NewParser(data []byte, mode Mode) *Parser {
	p := &Parser{lex: NewLexer(data), mode: mode}
	p.advance()
	p.advance()
	return p
}

// SetResolver installs the resolver used for indirect stream lengths.
func (p *Parser) SetResolver(r ReferenceResolver) { p.resolver = r }

// Seek repositions the parser at an absolute byte offset and reprimes the
// token lookahead.
func (p *Parser) Seek(offset int) {
	p.lex.Seek(offset)
	p.cur, p.peek = Token{}, Token{}
	p.advance()
	p.advance()
}

// Pos returns the byte offset of the current token.
func (p *Parser) Pos() int { return p.cur.Pos }

func (p *Parser) advance() {
	p.cur = p.peek

	// Once the stream keyword is current the bytes that follow are binary
	// payload; prefetching a token there would tokenize garbage. parseStream
	// resumes lexing after the payload.
	if p.cur.Type == TokenKeyword && bytes.Equal(p.cur.Value, []byte("stream")) {
		p.peek = Token{Type: TokenEOF, Pos: p.lex.Pos()}
		return
	}

	tok, err := p.lex.Next()
	if err != nil {
		// Represent the lex error as EOF; callers see the malformation as an
		// unexpected end of input at this offset.
		tok = Token{Type: TokenEOF, Pos: p.lex.Pos()}
	}
	p.peek = tok
}

func (p *Parser) keywordIs(t Token, kw string) bool {
	return t.Type == TokenKeyword && string(t.Value) == kw
}

// ParseObject parses one object of any kind: null, boolean, number, string,
// name, array, dictionary, or indirect reference. Streams are only produced
// by ParseIndirectObject since they can exist only as indirect objects.
func (p *Parser) ParseObject() (Object, error) {
	switch p.cur.Type {
	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of input at offset %d", p.cur.Pos)

	case TokenKeyword:
		switch string(p.cur.Value) {
		case "null":
			p.advance()
			return Null{}, nil
		case "true":
			p.advance()
			return Bool(true), nil
		case "false":
			p.advance()
			return Bool(false), nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q at offset %d", p.cur.Value, p.cur.Pos)
		}

	case TokenInteger:
		return p.parseNumberOrRef()

	case TokenReal:
		v, err := strconv.ParseFloat(string(p.cur.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q at offset %d", p.cur.Value, p.cur.Pos)
		}
		p.advance()
		return Real(v), nil

	case TokenString:
		v := String(p.cur.Value)
		p.advance()
		return v, nil

	case TokenHexString:
		v := String(p.cur.Value)
		p.advance()
		return v, nil

	case TokenName:
		v := Name(p.cur.Value)
		p.advance()
		return v, nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()

	default:
		return nil, fmt.Errorf("unexpected token at offset %d", p.cur.Pos)
	}
}

// parseNumberOrRef disambiguates "N", "N G R" and plain integers by
// lookahead. The reference form is resolved here rather than in the lexer.
func (p *Parser) parseNumberOrRef() (Object, error) {
	first, err := strconv.ParseInt(string(p.cur.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q at offset %d", p.cur.Value, p.cur.Pos)
	}

	if p.peek.Type == TokenInteger {
		// Possible "num gen R": remember where we are so a plain pair of
		// integers can be replayed.
		savedPos := p.lex.Pos()
		savedCur, savedPeek := p.cur, p.peek

		p.advance() // cur = second integer
		if p.keywordIs(p.peek, "R") {
			gen, genErr := strconv.ParseInt(string(p.cur.Value), 10, 64)
			if genErr == nil {
				p.advance() // cur = R
				p.advance() // past R
				return IndirectRef{Num: int(first), Gen: int(gen)}, nil
			}
		}

		p.lex.Seek(savedPos)
		p.cur, p.peek = savedCur, savedPeek
	}

	p.advance()
	return Int(first), nil
}

func (p *Parser) parseArray() (Object, error) {
	start := p.cur.Pos
	p.advance() // [

	var arr Array
	for {
		if p.cur.Type == TokenArrayEnd {
			p.advance()
			return arr, nil
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("unterminated array starting at offset %d", start)
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	start := p.cur.Pos
	p.advance() // <<

	dict := make(Dict)
	for {
		if p.cur.Type == TokenDictEnd {
			p.advance()
			return dict, nil
		}
		if p.cur.Type == TokenEOF {
			return nil, fmt.Errorf("unterminated dictionary starting at offset %d", start)
		}
		if p.cur.Type != TokenName {
			if p.mode == Permissive {
				// Skip the stray token and keep going.
				p.Damaged = true
				p.advance()
				continue
			}
			return nil, fmt.Errorf("dictionary key at offset %d is not a name", p.cur.Pos)
		}
		key := Name(p.cur.Value)
		p.advance()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("dictionary value for /%s: %w", key, err)
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj ... endobj", including the stream
// form. In permissive mode a malformed body yields a damaged object holding
// null after resynchronizing at the next endobj or endstream.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	if p.cur.Type != TokenInteger {
		return nil, fmt.Errorf("expected object number at offset %d", p.cur.Pos)
	}
	num, err := strconv.Atoi(string(p.cur.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid object number %q", p.cur.Value)
	}
	p.advance()

	if p.cur.Type != TokenInteger {
		return nil, fmt.Errorf("expected generation number at offset %d", p.cur.Pos)
	}
	gen, err := strconv.Atoi(string(p.cur.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid generation number %q", p.cur.Value)
	}
	p.advance()

	if !p.keywordIs(p.cur, "obj") {
		return nil, fmt.Errorf("expected obj keyword at offset %d", p.cur.Pos)
	}
	p.advance()

	ref := IndirectRef{Num: num, Gen: gen}

	obj, err := p.ParseObject()
	if err != nil {
		if p.mode != Permissive {
			return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
		}
		p.Damaged = true
		p.resync()
		return &IndirectObject{Ref: ref, Object: Null{}}, nil
	}

	if p.keywordIs(p.cur, "stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("object %d %d: stream keyword after non-dictionary", num, gen)
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
		}
		obj = stream
	}

	if p.keywordIs(p.cur, "endobj") {
		p.advance()
	} else if p.mode != Permissive {
		return nil, fmt.Errorf("object %d %d: missing endobj at offset %d", num, gen, p.cur.Pos)
	}

	return &IndirectObject{Ref: ref, Object: obj}, nil
}

// resync skips tokens until just past the next endobj or endstream keyword.
func (p *Parser) resync() {
	for p.cur.Type != TokenEOF {
		if p.keywordIs(p.cur, "endobj") || p.keywordIs(p.cur, "endstream") {
			p.advance()
			return
		}
		p.advance()
	}
}

// parseStream reads the raw payload after the stream keyword. Strict mode
// trusts /Length exactly; permissive mode falls back to scanning for the
// endstream keyword when /Length is absent, indirect-but-unresolvable, or
// provably wrong.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	// The lexer sits immediately after the stream keyword.
	p.lex.SkipStreamEOL()
	start := p.lex.Pos()

	length := -1
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver != nil {
			if resolved, err := p.resolver.ResolveReference(v); err == nil {
				if n, ok := resolved.(Int); ok {
					length = int(n)
				}
			}
		}
		if length < 0 && p.mode != Permissive {
			return nil, fmt.Errorf("stream /Length %s cannot be resolved", v)
		}
	case nil:
		if p.mode != Permissive {
			return nil, fmt.Errorf("stream dictionary missing /Length")
		}
	default:
		if p.mode != Permissive {
			return nil, fmt.Errorf("stream /Length has kind %s", v.Kind())
		}
	}

	raw, ok := p.sliceStream(start, length)
	if !ok {
		if p.mode != Permissive {
			return nil, fmt.Errorf("stream at offset %d: endstream not found after %d bytes", start, length)
		}
		p.Damaged = true
		var found bool
		raw, found = p.scanForEndstream(start)
		if !found {
			return nil, fmt.Errorf("stream at offset %d: endstream not found", start)
		}
	}

	// Resume lexing after the payload; the next token must be endstream.
	p.Seek(start + len(raw))
	if !p.keywordIs(p.cur, "endstream") {
		// A single EOL may separate payload and keyword; Seek already skips
		// whitespace while repriming, so reaching here means real damage.
		if p.mode != Permissive {
			return nil, fmt.Errorf("missing endstream at offset %d", p.cur.Pos)
		}
		p.Damaged = true
		p.resync()
		return &Stream{Dict: dict, Raw: raw}, nil
	}
	p.advance()

	return &Stream{Dict: dict, Raw: raw}, nil
}

// sliceStream returns length bytes starting at start if the endstream
// keyword follows within one line terminator of the payload.
func (p *Parser) sliceStream(start, length int) ([]byte, bool) {
	if length < 0 || start+length > len(p.lex.data) {
		return nil, false
	}
	tail := p.lex.data[start+length:]
	for i := 0; i < 2 && len(tail) > 0; i++ {
		if tail[0] == '\r' || tail[0] == '\n' {
			tail = tail[1:]
		}
	}
	if !bytes.HasPrefix(tail, []byte("endstream")) {
		return nil, false
	}
	return p.lex.data[start : start+length], true
}

// scanForEndstream recovers a payload when /Length is unusable by searching
// for the next endstream keyword and trimming the trailing EOL.
func (p *Parser) scanForEndstream(start int) ([]byte, bool) {
	idx := bytes.Index(p.lex.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, false
	}
	end := start + idx
	for end > start && (p.lex.data[end-1] == '\n' || p.lex.data[end-1] == '\r') {
		end--
	}
	return p.lex.data[start:end], true
}
