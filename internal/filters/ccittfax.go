package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes CCITT Group 3/4 fax data, found in scanned
// documents. The text pipeline never interprets the result, but decoding it
// keeps filter chains that end in fax data usable.
//
// Parameters: K selects the group (-1 Group 4, otherwise Group 3), Columns
// defaults to 1728, Rows to auto-detection, and BlackIs1 maps to the
// decoder's Invert option.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1728)
	rows := intParam(params, "Rows", 0)
	k := intParam(params, "K", 0)
	blackIs1 := boolParam(params, "BlackIs1", false)

	sf := ccitt.Group3
	if k < 0 {
		sf = ccitt.Group4
	}
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	opts := &ccitt.Options{Invert: blackIs1}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	return io.ReadAll(r)
}
