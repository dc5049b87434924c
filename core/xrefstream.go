package core

import (
	"fmt"
)

// parseXRefStream parses a cross-reference stream object at offset: an
// indirect stream whose /Type is /XRef and whose decoded payload is a packed
// sequence of fixed-width records described by /W, covering the object
// ranges listed in /Index (default [0 /Size]).
func parseXRefStream(data []byte, offset int, mode Mode) (map[int]XRefEntry, Dict, error) {
	p := NewParser(data, mode)
	p.Seek(offset)
	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("xref stream at offset %d: %w", offset, err)
	}
	stream, ok := ind.Object.(*Stream)
	if !ok {
		return nil, nil, fmt.Errorf("xref section at offset %d is %s, not a stream", offset, ind.Object.Kind())
	}
	if typ, ok := stream.Dict.Name("Type"); !ok || typ != "XRef" {
		return nil, nil, fmt.Errorf("stream at offset %d is not /Type /XRef", offset)
	}

	size, ok := stream.Dict.Int("Size")
	if !ok {
		return nil, nil, fmt.Errorf("xref stream missing /Size")
	}

	widths, err := xrefFieldWidths(stream.Dict)
	if err != nil {
		return nil, nil, err
	}

	index, err := xrefIndex(stream.Dict, int(size))
	if err != nil {
		return nil, nil, err
	}

	decoded, err := stream.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("xref stream decode: %w", err)
	}

	rowLen := widths[0] + widths[1] + widths[2]
	entries := make(map[int]XRefEntry)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for n := 0; n < count; n++ {
			if pos+rowLen > len(decoded) {
				return nil, nil, fmt.Errorf("xref stream truncated: need %d bytes at row for object %d, have %d",
					rowLen, start+n, len(decoded)-pos)
			}
			f1 := readField(decoded[pos:], widths[0], 1) // kind defaults to in-use
			pos += widths[0]
			f2 := readField(decoded[pos:], widths[1], 0)
			pos += widths[1]
			f3 := readField(decoded[pos:], widths[2], 0)
			pos += widths[2]

			num := start + n
			switch f1 {
			case 0:
				entries[num] = XRefEntry{Kind: FreeEntry, Offset: int64(f2), Gen: int(f3)}
			case 1:
				entries[num] = XRefEntry{Kind: InUseEntry, Offset: int64(f2), Gen: int(f3)}
			case 2:
				entries[num] = XRefEntry{Kind: CompressedEntry, StreamNum: int(f2), StreamIdx: int(f3)}
			default:
				// Unknown entry kinds are reserved; readers treat them as null
				// references, so the object number is left unmapped.
			}
		}
	}

	return entries, stream.Dict, nil
}

// xrefFieldWidths reads /W, requiring at least the three standard fields.
func xrefFieldWidths(dict Dict) ([3]int, error) {
	var widths [3]int
	w, ok := dict.Array("W")
	if !ok || len(w) < 3 {
		return widths, fmt.Errorf("xref stream has invalid /W")
	}
	for i := 0; i < 3; i++ {
		v, ok := w.Int(i)
		if !ok || v < 0 || v > 8 {
			return widths, fmt.Errorf("xref stream /W[%d] invalid", i)
		}
		widths[i] = int(v)
	}
	return widths, nil
}

// xrefIndex reads /Index as flat (start, count) pairs, defaulting to the
// single run [0 size].
func xrefIndex(dict Dict, size int) ([]int, error) {
	arr, ok := dict.Array("Index")
	if !ok {
		return []int{0, size}, nil
	}
	if len(arr)%2 != 0 {
		return nil, fmt.Errorf("xref stream /Index has odd length %d", len(arr))
	}
	index := make([]int, len(arr))
	for i := range arr {
		v, ok := arr.Int(i)
		if !ok || v < 0 {
			return nil, fmt.Errorf("xref stream /Index[%d] invalid", i)
		}
		index[i] = int(v)
	}
	return index, nil
}

// readField decodes a big-endian field of the given width. Width zero means
// the field is absent and takes its default value.
func readField(b []byte, width int, def uint64) uint64 {
	if width == 0 {
		return def
	}
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
