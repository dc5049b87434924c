package filters

import "fmt"

// applyPredictor reverses the prediction step declared in /DecodeParms.
// Predictor 1 is identity, 2 is TIFF horizontal differencing, and 10-15 are
// the PNG filters where every row carries its own predictor byte.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := intParam(params, "Predictor", 1)
	switch {
	case predictor == 1:
		return data, nil
	case predictor == 2:
		return undoTIFFPredictor(data, params)
	case predictor >= 10 && predictor <= 15:
		return undoPNGPredictor(data, params)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}
}

// undoTIFFPredictor reverses TIFF predictor 2: each sample was stored as the
// difference from its left neighbor.
func undoTIFFPredictor(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	if bpc != 8 {
		return nil, fmt.Errorf("TIFF predictor supports 8 bits per component, got %d", bpc)
	}
	rowSize := columns * colors
	if rowSize <= 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of row size %d", len(data), rowSize)
	}

	out := make([]byte, len(data))
	for row := 0; row*rowSize < len(data); row++ {
		base := row * rowSize
		for col := 0; col < rowSize; col++ {
			i := base + col
			if col < colors {
				out[i] = data[i]
			} else {
				out[i] = data[i] + out[i-colors]
			}
		}
	}
	return out, nil
}

// undoPNGPredictor reverses the per-row PNG filters None, Sub, Up, Average
// and Paeth.
func undoPNGPredictor(data []byte, params Params) ([]byte, error) {
	columns := intParam(params, "Columns", 1)
	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)

	bytesPerPixel := (colors*bpc + 7) / 8
	if bytesPerPixel < 1 {
		bytesPerPixel = 1
	}
	rowBytes := (columns*colors*bpc + 7) / 8
	rowSize := rowBytes + 1 // leading predictor byte
	if rowBytes <= 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data length %d is not a multiple of row size %d", len(data), rowSize)
	}

	numRows := len(data) / rowSize
	out := make([]byte, numRows*rowBytes)
	prev := make([]byte, rowBytes)

	for row := 0; row < numRows; row++ {
		tag := data[row*rowSize]
		src := data[row*rowSize+1 : (row+1)*rowSize]
		dst := out[row*rowBytes : (row+1)*rowBytes]

		switch tag {
		case 0: // None
			copy(dst, src)
		case 1: // Sub
			for i := range src {
				var left byte
				if i >= bytesPerPixel {
					left = dst[i-bytesPerPixel]
				}
				dst[i] = src[i] + left
			}
		case 2: // Up
			for i := range src {
				dst[i] = src[i] + prev[i]
			}
		case 3: // Average
			for i := range src {
				var left byte
				if i >= bytesPerPixel {
					left = dst[i-bytesPerPixel]
				}
				dst[i] = src[i] + byte((int(left)+int(prev[i]))/2)
			}
		case 4: // Paeth
			for i := range src {
				var left, upLeft byte
				if i >= bytesPerPixel {
					left = dst[i-bytesPerPixel]
					upLeft = prev[i-bytesPerPixel]
				}
				dst[i] = src[i] + paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("row %d has unknown PNG filter %d", row, tag)
		}
		copy(prev, dst)
	}
	return out, nil
}

// paeth picks the neighbor closest to the linear prediction a + b - c.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
