package core

import (
	"testing"
)

func parseOne(t *testing.T, input string) Object {
	t.Helper()
	obj, err := NewParser([]byte(input), Strict).ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(%q): %v", input, err)
	}
	return obj
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		input string
		want  Object
	}{
		{"null", Null{}},
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"42", Int(42)},
		{"-17", Int(-17)},
		{"3.5", Real(3.5)},
		{"/Name", Name("Name")},
		{"(str)", String("str")},
		{"<414243>", String("ABC")},
	}
	for _, tt := range tests {
		got := parseOne(t, tt.input)
		if got != tt.want {
			t.Errorf("ParseObject(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestParseIndirectRef(t *testing.T) {
	obj := parseOne(t, "12 0 R")
	ref, ok := obj.(IndirectRef)
	if !ok {
		t.Fatalf("got %T, want IndirectRef", obj)
	}
	if ref.Num != 12 || ref.Gen != 0 {
		t.Errorf("got %v, want 12 0 R", ref)
	}
}

func TestParseIntegerPairNotRef(t *testing.T) {
	// "1 2" inside an array is two integers, not a reference.
	obj := parseOne(t, "[1 2 3]")
	arr, ok := obj.(Array)
	if !ok || len(arr) != 3 {
		t.Fatalf("got %#v, want 3-element array", obj)
	}
	for i, want := range []Int{1, 2, 3} {
		if arr[i] != want {
			t.Errorf("element %d = %v, want %v", i, arr[i], want)
		}
	}
}

func TestParseMixedArray(t *testing.T) {
	obj := parseOne(t, "[/A 5 0 R (x) [1]]")
	arr := obj.(Array)
	if len(arr) != 4 {
		t.Fatalf("got %d elements, want 4", len(arr))
	}
	if arr[0] != Name("A") {
		t.Errorf("element 0 = %v", arr[0])
	}
	if ref, ok := arr[1].(IndirectRef); !ok || ref.Num != 5 {
		t.Errorf("element 1 = %v, want 5 0 R", arr[1])
	}
	if arr[2] != String("x") {
		t.Errorf("element 2 = %v", arr[2])
	}
	if inner, ok := arr[3].(Array); !ok || len(inner) != 1 {
		t.Errorf("element 3 = %v", arr[3])
	}
}

func TestParseNestedDict(t *testing.T) {
	obj := parseOne(t, "<< /Type /Page /Box [0 0 612 792] /Res << /N 3 >> /Parent 2 0 R >>")
	dict := obj.(Dict)
	if typ, _ := dict.Name("Type"); typ != "Page" {
		t.Errorf("/Type = %v", typ)
	}
	if box, ok := dict.Array("Box"); !ok || len(box) != 4 {
		t.Errorf("/Box = %v", box)
	}
	res, ok := dict.Dict("Res")
	if !ok {
		t.Fatalf("/Res missing")
	}
	if n, _ := res.Int("N"); n != 3 {
		t.Errorf("/Res/N = %d", n)
	}
	if ref, ok := dict.Ref("Parent"); !ok || ref.Num != 2 {
		t.Errorf("/Parent = %v", ref)
	}
}

func TestParseUnterminatedDict(t *testing.T) {
	if _, err := NewParser([]byte("<< /A 1"), Strict).ParseObject(); err == nil {
		t.Error("expected error for unterminated dictionary")
	}
}

func TestParseIndirectObject(t *testing.T) {
	input := "7 0 obj\n<< /Kind /Test >>\nendobj\n"
	ind, err := NewParser([]byte(input), Strict).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject: %v", err)
	}
	if ind.Ref.Num != 7 || ind.Ref.Gen != 0 {
		t.Errorf("ref = %v", ind.Ref)
	}
	dict, ok := ind.Object.(Dict)
	if !ok {
		t.Fatalf("object is %T", ind.Object)
	}
	if kind, _ := dict.Name("Kind"); kind != "Test" {
		t.Errorf("/Kind = %v", kind)
	}
}

func TestParseStream(t *testing.T) {
	input := "4 0 obj\n<< /Length 11 >>\nstream\nhello world\nendstream\nendobj\n"
	ind, err := NewParser([]byte(input), Strict).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject: %v", err)
	}
	stream, ok := ind.Object.(*Stream)
	if !ok {
		t.Fatalf("object is %T, want *Stream", ind.Object)
	}
	if string(stream.Raw) != "hello world" {
		t.Errorf("raw = %q", stream.Raw)
	}
}

func TestParseStreamCRLF(t *testing.T) {
	input := "4 0 obj << /Length 3 >> stream\r\nabc\r\nendstream endobj"
	ind, err := NewParser([]byte(input), Strict).ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject: %v", err)
	}
	if string(ind.Object.(*Stream).Raw) != "abc" {
		t.Errorf("raw = %q", ind.Object.(*Stream).Raw)
	}
}

func TestParseStreamWrongLengthStrict(t *testing.T) {
	input := "4 0 obj << /Length 2 >> stream\nabcdef\nendstream endobj"
	if _, err := NewParser([]byte(input), Strict).ParseIndirectObject(); err == nil {
		t.Error("expected strict-mode error for wrong /Length")
	}
}

func TestParseStreamWrongLengthPermissive(t *testing.T) {
	input := "4 0 obj << /Length 2 >> stream\nabcdef\nendstream endobj"
	p := NewParser([]byte(input), Permissive)
	ind, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject: %v", err)
	}
	if string(ind.Object.(*Stream).Raw) != "abcdef" {
		t.Errorf("raw = %q, want %q", ind.Object.(*Stream).Raw, "abcdef")
	}
	if !p.Damaged {
		t.Error("parser should be flagged damaged after endstream scan")
	}
}

// indirectLength resolves stream lengths from a fixed map, standing in for
// the xref layer.
type indirectLength map[int]Object

func (m indirectLength) ResolveReference(ref IndirectRef) (Object, error) {
	return m[ref.Num], nil
}

func TestParseStreamIndirectLength(t *testing.T) {
	input := "4 0 obj << /Length 9 0 R >> stream\nabcde\nendstream endobj"
	p := NewParser([]byte(input), Strict)
	p.SetResolver(indirectLength{9: Int(5)})
	ind, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject: %v", err)
	}
	if string(ind.Object.(*Stream).Raw) != "abcde" {
		t.Errorf("raw = %q", ind.Object.(*Stream).Raw)
	}
}

func TestPermissiveResync(t *testing.T) {
	// The first object has a broken body; permissive parsing flags it and
	// resynchronizes so the caller can continue.
	input := "3 0 obj << /Broken ] >> endobj"
	p := NewParser([]byte(input), Permissive)
	ind, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("ParseIndirectObject: %v", err)
	}
	if !p.Damaged {
		t.Error("Damaged flag not set")
	}
	if ind.Ref.Num != 3 {
		t.Errorf("ref = %v", ind.Ref)
	}
}
