package filters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hhrutter/lzw"
)

// LZWDecode decompresses LZW data: 9- to 12-bit codes, clear code 256,
// EOD 257. /EarlyChange selects whether the code width grows one code early
// (the default, value 1) or exactly when the table fills (value 0). Any
// declared predictor is reversed afterwards, as for Flate.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	earlyChange := intParam(params, "EarlyChange", 1) == 1

	r := lzw.NewReader(bytes.NewReader(data), earlyChange)
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		if !(err == io.ErrUnexpectedEOF && buf.Len() > 0) {
			return nil, fmt.Errorf("lzw: %w", err)
		}
	}

	return applyPredictor(buf.Bytes(), params)
}

// LZWEncode compresses data with LZW in the requested early-change variant.
func LZWEncode(data []byte, earlyChange bool) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, earlyChange)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
