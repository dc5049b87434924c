package contentstream

import (
	"fmt"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/logger"
)

// Operation is one content-stream operation: the operator and the operands
// that preceded it.
type Operation struct {
	Operator string
	Operands []core.Object
}

// Float returns operand i as a number.
func (op Operation) Float(i int) (float64, bool) {
	if i < 0 || i >= len(op.Operands) {
		return 0, false
	}
	return core.ToFloat(op.Operands[i])
}

// Name returns operand i as a name.
func (op Operation) Name(i int) (core.Name, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	n, ok := op.Operands[i].(core.Name)
	return n, ok
}

// Text returns operand i as a string.
func (op Operation) Text(i int) (core.String, bool) {
	if i < 0 || i >= len(op.Operands) {
		return "", false
	}
	s, ok := op.Operands[i].(core.String)
	return s, ok
}

// Parse tokenizes a content stream into its operation sequence. Operands
// collect until an operator consumes them. Inline images (BI ... ID ... EI)
// are recognized and their binary payload skipped; the BI operation is kept
// with its parameter names so interpreters can account for it. Malformed
// trailing bytes end parsing with the operations recovered so far.
func Parse(data []byte) ([]Operation, error) {
	lex := core.NewLexer(data)
	var ops []Operation
	var operands []core.Object
	var arrayStack []core.Array // nesting for [ ... ] operands
	var dictDepth int
	var dictKeys []core.Object

	push := func(obj core.Object) {
		if dictDepth > 0 {
			dictKeys = append(dictKeys, obj)
			return
		}
		if n := len(arrayStack); n > 0 {
			arrayStack[n-1] = append(arrayStack[n-1], obj)
			return
		}
		operands = append(operands, obj)
	}

	for {
		tok, err := lex.Next()
		if err != nil {
			logger.Debug("contentstream: lex error, stopping", "pos", lex.Pos(), "err", err)
			return ops, nil
		}

		switch tok.Type {
		case core.TokenEOF:
			return ops, nil

		case core.TokenInteger:
			push(core.Int(parseInt(tok.Value)))
		case core.TokenReal:
			push(core.Real(parseFloat(tok.Value)))
		case core.TokenString, core.TokenHexString:
			push(core.String(tok.Value))
		case core.TokenName:
			push(core.Name(tok.Value))

		case core.TokenArrayStart:
			arrayStack = append(arrayStack, core.Array{})
		case core.TokenArrayEnd:
			if n := len(arrayStack); n > 0 {
				arr := arrayStack[n-1]
				arrayStack = arrayStack[:n-1]
				push(arr)
			}

		case core.TokenDictStart:
			dictDepth++
		case core.TokenDictEnd:
			if dictDepth > 0 {
				dictDepth--
				if dictDepth == 0 {
					push(pairsToDict(dictKeys))
					dictKeys = nil
				}
			}

		case core.TokenKeyword:
			kw := string(tok.Value)
			switch kw {
			case "true":
				push(core.Bool(true))
				continue
			case "false":
				push(core.Bool(false))
				continue
			case "null":
				push(core.Null{})
				continue
			case "BI":
				params, err := parseInlineImage(lex)
				if err != nil {
					logger.Debug("contentstream: inline image unterminated", "err", err)
					return ops, nil
				}
				ops = append(ops, Operation{Operator: "BI", Operands: params})
				operands = operands[:0]
				continue
			}
			if dictDepth > 0 || len(arrayStack) > 0 {
				// An operator inside an unterminated composite: drop the
				// partial structure and treat this as a plain operator.
				arrayStack = nil
				dictDepth = 0
				dictKeys = nil
			}
			ops = append(ops, Operation{
				Operator: kw,
				Operands: append([]core.Object(nil), operands...),
			})
			operands = operands[:0]
		}
	}
}

// parseInlineImage consumes the parameter dictionary after BI, then skips
// binary data between ID and EI. Returns the parameter objects.
func parseInlineImage(lex *core.Lexer) ([]core.Object, error) {
	var params []core.Object
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == core.TokenEOF {
			return nil, fmt.Errorf("EOF in inline image parameters")
		}
		if tok.Type == core.TokenKeyword && string(tok.Value) == "ID" {
			break
		}
		switch tok.Type {
		case core.TokenName:
			params = append(params, core.Name(tok.Value))
		case core.TokenInteger:
			params = append(params, core.Int(parseInt(tok.Value)))
		}
	}

	// One whitespace byte follows ID, then raw data until whitespace-EI.
	rest := lex.Remaining()
	if len(rest) > 0 {
		rest = rest[1:]
		lex.Seek(lex.Pos() + 1)
	}
	for i := 0; i+1 < len(rest); i++ {
		if rest[i] == 'E' && rest[i+1] == 'I' {
			atEnd := i+2 >= len(rest) || isPDFSpace(rest[i+2])
			afterSpace := i == 0 || isPDFSpace(rest[i-1])
			if atEnd && afterSpace {
				lex.Seek(lex.Pos() + i + 2)
				return params, nil
			}
		}
	}
	return nil, fmt.Errorf("EI not found")
}

// pairsToDict folds a flat key/value list into a dictionary.
func pairsToDict(items []core.Object) core.Dict {
	dict := make(core.Dict)
	for i := 0; i+1 < len(items); i += 2 {
		if key, ok := items[i].(core.Name); ok {
			dict[key] = items[i+1]
		}
	}
	return dict
}

func parseInt(b []byte) int64 {
	var v int64
	neg := false
	for i, c := range b {
		switch {
		case c == '-' && i == 0:
			neg = true
		case c == '+' && i == 0:
		case c >= '0' && c <= '9':
			v = v*10 + int64(c-'0')
		}
	}
	if neg {
		return -v
	}
	return v
}

func parseFloat(b []byte) float64 {
	var intPart, fracPart float64
	var fracDiv float64 = 1
	neg := false
	inFrac := false
	for i, c := range b {
		switch {
		case c == '-' && i == 0:
			neg = true
		case c == '+' && i == 0:
		case c == '.':
			inFrac = true
		case c >= '0' && c <= '9':
			if inFrac {
				fracDiv *= 10
				fracPart += float64(c-'0') / fracDiv
			} else {
				intPart = intPart*10 + float64(c-'0')
			}
		}
	}
	v := intPart + fracPart
	if neg {
		return -v
	}
	return v
}

func isPDFSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == 0
}
