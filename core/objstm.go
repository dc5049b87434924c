package core

import (
	"fmt"
)

// ObjectStream gives access to the objects packed inside a /Type /ObjStm
// stream. The decoded payload starts with /N pairs of "objnum offset"
// integers; object data begins at /First.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	decoded []byte
	offsets []objStmSlot
	objects map[int]Object // parsed objects cached by slot index
}

type objStmSlot struct {
	Num    int
	Offset int
}

// NewObjectStream validates the stream header and prepares lazy decoding.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("object stream is nil")
	}
	if typ, ok := stream.Dict.Name("Type"); !ok || typ != "ObjStm" {
		return nil, fmt.Errorf("stream is not /Type /ObjStm")
	}
	n, ok := stream.Dict.Int("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N")
	}
	first, ok := stream.Dict.Int("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First")
	}
	return &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		objects: make(map[int]Object),
	}, nil
}

// Count returns the number of objects in the stream.
func (os *ObjectStream) Count() int { return os.n }

// decode decompresses the payload and parses the header pairs once.
func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}
	decoded, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("object stream decode: %w", err)
	}
	if os.first > len(decoded) {
		return fmt.Errorf("object stream /First %d beyond decoded length %d", os.first, len(decoded))
	}
	os.decoded = decoded

	p := NewParser(decoded[:os.first], Strict)
	os.offsets = make([]objStmSlot, 0, os.n)
	for i := 0; i < os.n; i++ {
		numObj, err := p.ParseObject()
		if err != nil {
			return fmt.Errorf("object stream header pair %d: %w", i, err)
		}
		offObj, err := p.ParseObject()
		if err != nil {
			return fmt.Errorf("object stream header pair %d: %w", i, err)
		}
		num, ok1 := numObj.(Int)
		off, ok2 := offObj.(Int)
		if !ok1 || !ok2 {
			return fmt.Errorf("object stream header pair %d is not two integers", i)
		}
		os.offsets = append(os.offsets, objStmSlot{Num: int(num), Offset: int(off)})
	}
	return nil
}

// ObjectAt parses and returns the object in slot index along with its object
// number. Compressed objects are always direct: they contain no streams and
// generation 0 is implied.
func (os *ObjectStream) ObjectAt(index int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("object stream slot %d out of range [0, %d)", index, len(os.offsets))
	}
	if obj, ok := os.objects[index]; ok {
		return obj, os.offsets[index].Num, nil
	}

	start := os.first + os.offsets[index].Offset
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		end = os.first + os.offsets[index+1].Offset
	}
	if start > len(os.decoded) {
		return nil, 0, fmt.Errorf("object stream slot %d offset %d beyond payload", index, start)
	}
	if end > len(os.decoded) {
		end = len(os.decoded)
	}

	p := NewParser(os.decoded[start:end], Strict)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("object stream slot %d: %w", index, err)
	}
	os.objects[index] = obj
	return obj, os.offsets[index].Num, nil
}

// ObjectByNumber finds an object by its object number.
func (os *ObjectStream) ObjectByNumber(num int) (Object, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}
	for i, slot := range os.offsets {
		if slot.Num == num {
			obj, _, err := os.ObjectAt(i)
			return obj, err
		}
	}
	return nil, fmt.Errorf("object %d not present in object stream", num)
}
