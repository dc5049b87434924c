package core

import (
	"testing"

	"github.com/inkstream/pdftext/internal/filters"
	"github.com/inkstream/pdftext/internal/testbuild"
)

func buildObjStm(t *testing.T, objs [][2]string) *ObjectStream {
	t.Helper()
	payload, first := testbuild.ObjStmData(objs)
	stream := &Stream{
		Dict: Dict{
			"Type":   Name("ObjStm"),
			"N":      Int(len(objs)),
			"First":  Int(first),
			"Length": Int(len(payload)),
		},
		Raw: payload,
	}
	os, err := NewObjectStream(stream)
	if err != nil {
		t.Fatalf("NewObjectStream: %v", err)
	}
	return os
}

func TestObjectStreamByIndex(t *testing.T) {
	os := buildObjStm(t, [][2]string{
		{"10", "<< /A 1 >>"},
		{"11", "(hello)"},
		{"12", "42"},
	})

	if os.Count() != 3 {
		t.Errorf("Count = %d, want 3", os.Count())
	}

	obj, num, err := os.ObjectAt(1)
	if err != nil {
		t.Fatalf("ObjectAt(1): %v", err)
	}
	if num != 11 {
		t.Errorf("num = %d, want 11", num)
	}
	if obj != String("hello") {
		t.Errorf("object = %v, want (hello)", obj)
	}

	obj, num, err = os.ObjectAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if num != 10 {
		t.Errorf("num = %d, want 10", num)
	}
	dict, ok := obj.(Dict)
	if !ok {
		t.Fatalf("object is %T", obj)
	}
	if a, _ := dict.Int("A"); a != 1 {
		t.Errorf("/A = %d", a)
	}
}

func TestObjectStreamByNumber(t *testing.T) {
	os := buildObjStm(t, [][2]string{
		{"10", "(x)"},
		{"20", "(y)"},
	})
	obj, err := os.ObjectByNumber(20)
	if err != nil {
		t.Fatal(err)
	}
	if obj != String("y") {
		t.Errorf("object 20 = %v", obj)
	}
	if _, err := os.ObjectByNumber(99); err == nil {
		t.Error("expected error for absent object")
	}
}

func TestObjectStreamOutOfRange(t *testing.T) {
	os := buildObjStm(t, [][2]string{{"1", "null"}})
	if _, _, err := os.ObjectAt(5); err == nil {
		t.Error("expected error for out-of-range slot")
	}
}

func TestObjectStreamRejectsWrongType(t *testing.T) {
	stream := &Stream{Dict: Dict{"Type": Name("XRef"), "N": Int(0), "First": Int(0)}}
	if _, err := NewObjectStream(stream); err == nil {
		t.Error("expected error for non-ObjStm stream")
	}
}

func TestObjectStreamCompressed(t *testing.T) {
	// The payload itself can be Flate-compressed like any stream.
	payload, first := testbuild.ObjStmData([][2]string{{"5", "(compressed)"}})
	enc := filters.FlateEncode(payload)
	stream := &Stream{
		Dict: Dict{
			"Type":   Name("ObjStm"),
			"N":      Int(1),
			"First":  Int(first),
			"Filter": Name("FlateDecode"),
			"Length": Int(len(enc)),
		},
		Raw: enc,
	}
	os, err := NewObjectStream(stream)
	if err != nil {
		t.Fatal(err)
	}
	obj, err := os.ObjectByNumber(5)
	if err != nil {
		t.Fatal(err)
	}
	if obj != String("compressed") {
		t.Errorf("object = %v", obj)
	}
}
