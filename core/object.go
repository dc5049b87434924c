package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Object is a PDF object. The concrete types form the tagged variant set of
// the PDF object grammar: Null, Bool, Int, Real, String, Name, Array, Dict,
// *Stream and IndirectRef.
type Object interface {
	Kind() ObjectKind
	String() string
}

// ObjectKind identifies the concrete type of an Object.
type ObjectKind int

const (
	KindNull ObjectKind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindName
	KindArray
	KindDict
	KindStream
	KindRef
)

// String returns the name of the object kind.
func (k ObjectKind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindName:
		return "Name"
	case KindArray:
		return "Array"
	case KindDict:
		return "Dict"
	case KindStream:
		return "Stream"
	case KindRef:
		return "Ref"
	default:
		return "Unknown"
	}
}

// Null is the PDF null object.
type Null struct{}

func (Null) Kind() ObjectKind { return KindNull }
func (Null) String() string   { return "null" }

// Bool is a PDF boolean.
type Bool bool

func (b Bool) Kind() ObjectKind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int is a PDF integer.
type Int int64

func (i Int) Kind() ObjectKind { return KindInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real is a PDF real number.
type Real float64

func (r Real) Kind() ObjectKind { return KindReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String is a PDF string. The value holds raw bytes after escape and hex
// resolution; it is never assumed to be UTF-8 at this layer.
type String string

func (s String) Kind() ObjectKind { return KindString }
func (s String) String() string   { return "(" + string(s) + ")" }

// Name is a PDF name with # escapes already resolved.
type Name string

func (n Name) Kind() ObjectKind { return KindName }
func (n Name) String() string   { return "/" + string(n) }

// Array is an ordered sequence of objects.
type Array []Object

func (a Array) Kind() ObjectKind { return KindArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Int returns the integer at index i, if present.
func (a Array) Int(i int) (int64, bool) {
	if i < 0 || i >= len(a) {
		return 0, false
	}
	v, ok := a[i].(Int)
	return int64(v), ok
}

// Float returns the numeric value at index i, accepting Int or Real.
func (a Array) Float(i int) (float64, bool) {
	if i < 0 || i >= len(a) {
		return 0, false
	}
	return toFloat(a[i])
}

// Name returns the name at index i, if present.
func (a Array) Name(i int) (Name, bool) {
	if i < 0 || i >= len(a) {
		return "", false
	}
	v, ok := a[i].(Name)
	return v, ok
}

// Dict is a mapping from name (without the leading slash) to object.
// Access never asserts: every accessor reports whether the key held a value
// of the requested kind.
type Dict map[Name]Object

func (d Dict) Kind() ObjectKind { return KindDict }
func (d Dict) String() string {
	parts := make([]string, 0, len(d))
	for key, val := range d {
		parts = append(parts, fmt.Sprintf("/%s %s", key, val.String()))
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the raw value for key, or nil.
func (d Dict) Get(key Name) Object { return d[key] }

// Has reports whether key is present.
func (d Dict) Has(key Name) bool {
	_, ok := d[key]
	return ok
}

// Name returns the name value for key.
func (d Dict) Name(key Name) (Name, bool) {
	v, ok := d[key].(Name)
	return v, ok
}

// Int returns the integer value for key.
func (d Dict) Int(key Name) (int64, bool) {
	v, ok := d[key].(Int)
	return int64(v), ok
}

// Float returns the numeric value for key, accepting Int or Real.
func (d Dict) Float(key Name) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Bool returns the boolean value for key.
func (d Dict) Bool(key Name) (bool, bool) {
	v, ok := d[key].(Bool)
	return bool(v), ok
}

// Text returns the string value for key.
func (d Dict) Text(key Name) (String, bool) {
	v, ok := d[key].(String)
	return v, ok
}

// Array returns the array value for key.
func (d Dict) Array(key Name) (Array, bool) {
	v, ok := d[key].(Array)
	return v, ok
}

// Dict returns the dictionary value for key.
func (d Dict) Dict(key Name) (Dict, bool) {
	v, ok := d[key].(Dict)
	return v, ok
}

// Ref returns the indirect reference for key.
func (d Dict) Ref(key Name) (IndirectRef, bool) {
	v, ok := d[key].(IndirectRef)
	return v, ok
}

// Stream is a dictionary plus a raw byte range from the backing file.
// Raw holds the undecoded payload; decoded bytes are produced on demand by
// Decode and are not cached here.
type Stream struct {
	Dict Dict
	Raw  []byte
}

func (s *Stream) Kind() ObjectKind { return KindStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d raw bytes)", s.Dict.String(), len(s.Raw))
}

// IndirectRef is a reference to an indirect object: object number plus
// generation.
type IndirectRef struct {
	Num int
	Gen int
}

func (r IndirectRef) Kind() ObjectKind { return KindRef }
func (r IndirectRef) String() string   { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// IndirectObject pairs a parsed object with its reference.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}

func toFloat(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	default:
		return 0, false
	}
}

// ToFloat converts an Int or Real object to float64.
func ToFloat(obj Object) (float64, bool) { return toFloat(obj) }

// IsNull reports whether obj is nil or the null object.
func IsNull(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(Null)
	return ok
}
