// Package filters implements the PDF stream decoders: FlateDecode with PNG
// and TIFF predictors, ASCIIHexDecode, ASCII85Decode, LZWDecode with both
// early-change variants, RunLengthDecode, and CCITTFaxDecode.
//
// Decoders take the raw filter payload and the stream's /DecodeParms lowered
// to primitive values:
//
//	decoded, err := filters.FlateDecode(data, params)
//
// The reversible text filters (ASCIIHex, ASCII85, RunLength) also expose
// encoders, used by round-trip tests and benchmarking.
package filters

// Params represents decode parameters from a stream dictionary, lowered to
// Go primitives. Common keys are Predictor, Columns, Colors,
// BitsPerComponent and EarlyChange.
type Params map[string]interface{}

// intParam extracts an integer parameter, returning def when the key is
// missing or not numeric.
func intParam(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// boolParam extracts a boolean parameter.
func boolParam(params Params, key string, def bool) bool {
	if params == nil {
		return def
	}
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}
