package core

import (
	"fmt"

	"github.com/inkstream/pdftext/internal/filters"
)

// Decode applies the declared decoder chain to the raw stream payload and
// returns the result. Filters compose in /Filter order; /DecodeParms may be
// a single dictionary or an array parallel to the filter array. Decoded
// bytes are produced on every call and never cached.
func (s *Stream) Decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Raw, nil
	}

	parmsObj := s.Dict.Get("DecodeParms")
	if parmsObj == nil {
		// /DP is a deprecated synonym some producers still write.
		parmsObj = s.Dict.Get("DP")
	}

	switch f := filterObj.(type) {
	case Name:
		return decodeFilter(s.Raw, f, parmsToDict(parmsObj))

	case Array:
		data := s.Raw
		for i, elem := range f {
			name, ok := elem.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is %s, not a name", i, elem.Kind())
			}
			var parms Dict
			if arr, ok := parmsObj.(Array); ok {
				if i < len(arr) {
					parms = parmsToDict(arr[i])
				}
			} else {
				parms = parmsToDict(parmsObj)
			}
			var err error
			data, err = decodeFilter(data, name, parms)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
			}
		}
		return data, nil

	default:
		return nil, fmt.Errorf("/Filter is %s, not a name or array", filterObj.Kind())
	}
}

// decodeFilter applies a single named filter. Both the full names and the
// short inline-image synonyms are accepted.
func decodeFilter(data []byte, name Name, parms Dict) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, dictToParams(parms))
	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)
	case "LZWDecode", "LZW":
		return filters.LZWDecode(data, dictToParams(parms))
	case "RunLengthDecode", "RL":
		return filters.RunLengthDecode(data)
	case "CCITTFaxDecode", "CCF":
		return filters.CCITTFaxDecode(data, dictToParams(parms))
	case "DCTDecode", "DCT", "JPXDecode":
		// Image payloads pass through untouched; nothing downstream
		// interprets them as text.
		return data, nil
	case "Crypt":
		return nil, fmt.Errorf("Crypt filter is not supported")
	default:
		return nil, fmt.Errorf("unknown filter %s", name)
	}
}

// parmsToDict normalizes a /DecodeParms element: dictionaries pass through,
// null and anything else mean no parameters.
func parmsToDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams lowers PDF objects to the primitive values the filter
// implementations consume.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[string(k)] = int(obj)
		case Real:
			params[string(k)] = float64(obj)
		case Bool:
			params[string(k)] = bool(obj)
		case Name:
			params[string(k)] = string(obj)
		}
	}
	return params
}
