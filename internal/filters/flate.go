package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// FlateDecode decompresses a zlib stream and reverses any declared
// predictor. This is the dominant filter in real files; xref streams in
// particular almost always pair it with PNG predictor 12.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		// An unexpected EOF after usable output is common in files written
		// by a truncating producer; the partial data is still returned so a
		// permissive caller can keep what decoded.
		if !(err == io.ErrUnexpectedEOF && buf.Len() > 0) {
			return nil, fmt.Errorf("zlib: %w", err)
		}
	}

	return applyPredictor(buf.Bytes(), params)
}

// FlateEncode compresses data with zlib. Used by tests and the bench
// command; no predictor step is applied.
func FlateEncode(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}
