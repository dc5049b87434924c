package filters

import (
	"bytes"
	"testing"
)

func TestFlateRoundTrip(t *testing.T) {
	inputs := []string{
		"BT /F1 12 Tf (Hello) Tj ET",
		"",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	}
	for _, in := range inputs {
		dec, err := FlateDecode(FlateEncode([]byte(in)), nil)
		if err != nil {
			t.Fatalf("FlateDecode: %v", err)
		}
		if string(dec) != in {
			t.Errorf("round trip of %q = %q", in, dec)
		}
	}
}

func TestFlateDecodeGarbage(t *testing.T) {
	if _, err := FlateDecode([]byte("not zlib data"), nil); err == nil {
		t.Error("expected error for invalid zlib data")
	}
}

// pngEncodeUp applies PNG Up filtering to rows of the given width, the
// inverse of what the decoder must undo.
func pngEncodeUp(rows [][]byte) []byte {
	var out bytes.Buffer
	prev := make([]byte, len(rows[0]))
	for _, row := range rows {
		out.WriteByte(2)
		for i, b := range row {
			out.WriteByte(b - prev[i])
		}
		prev = row
	}
	return out.Bytes()
}

func TestFlatePNGUpPredictor(t *testing.T) {
	rows := [][]byte{
		{1, 0, 0, 10},
		{1, 0, 0, 20},
		{2, 0, 1, 5},
	}
	params := Params{"Predictor": 12, "Columns": 4, "Colors": 1, "BitsPerComponent": 8}

	encoded := FlateEncode(pngEncodeUp(rows))
	got, err := FlateDecode(encoded, params)
	if err != nil {
		t.Fatalf("FlateDecode with predictor: %v", err)
	}
	want := bytes.Join(rows, nil)
	if !bytes.Equal(got, want) {
		t.Errorf("predictor output = %v, want %v", got, want)
	}
}

func TestPNGPredictorFilters(t *testing.T) {
	// One row per PNG filter type over two-byte pixels.
	raw := []byte{
		0, 1, 2, 3, 4, // None
		1, 5, 5, 1, 1, // Sub: output 5 5 6 6
		2, 1, 1, 1, 1, // Up: previous row + 1
		4, 1, 0, 0, 0, // Paeth
	}
	params := Params{"Predictor": 15, "Columns": 2, "Colors": 2, "BitsPerComponent": 8}
	got, err := applyPredictor(raw, params)
	if err != nil {
		t.Fatalf("applyPredictor: %v", err)
	}
	want := []byte{
		1, 2, 3, 4,
		5, 5, 6, 6,
		6, 6, 7, 7,
		7, 6, 7, 7,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("applyPredictor = %v, want %v", got, want)
	}
}

func TestTIFFPredictor(t *testing.T) {
	// Two rows, stored as horizontal differences.
	raw := []byte{10, 1, 1, 1, 20, 2, 2, 2}
	params := Params{"Predictor": 2, "Columns": 4, "Colors": 1, "BitsPerComponent": 8}
	got, err := applyPredictor(raw, params)
	if err != nil {
		t.Fatalf("applyPredictor: %v", err)
	}
	want := []byte{10, 11, 12, 13, 20, 22, 24, 26}
	if !bytes.Equal(got, want) {
		t.Errorf("TIFF predictor = %v, want %v", got, want)
	}
}

func TestPredictorBadRowSize(t *testing.T) {
	params := Params{"Predictor": 12, "Columns": 4, "Colors": 1, "BitsPerComponent": 8}
	if _, err := applyPredictor([]byte{2, 0, 0}, params); err == nil {
		t.Error("expected error for data not a multiple of row size")
	}
}
