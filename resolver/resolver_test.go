package resolver

import (
	"testing"

	"github.com/inkstream/pdftext/core"
)

// mapReader serves objects from a fixed map.
type mapReader map[int]core.Object

func (m mapReader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	if obj, ok := m[ref.Num]; ok {
		return obj, nil
	}
	return core.Null{}, nil
}

func TestResolveShallow(t *testing.T) {
	r := New(mapReader{1: core.String("target")})
	got, err := r.Resolve(core.IndirectRef{Num: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got != core.String("target") {
		t.Errorf("got %v", got)
	}

	// Non-references pass through.
	got, err = r.Resolve(core.Int(7))
	if err != nil {
		t.Fatal(err)
	}
	if got != core.Int(7) {
		t.Errorf("got %v", got)
	}
}

func TestResolveDeep(t *testing.T) {
	r := New(mapReader{
		1: core.Dict{"Inner": core.IndirectRef{Num: 2}},
		2: core.Array{core.IndirectRef{Num: 3}, core.Int(9)},
		3: core.Name("leaf"),
	})
	got, err := r.ResolveDeep(core.IndirectRef{Num: 1})
	if err != nil {
		t.Fatal(err)
	}
	dict := got.(core.Dict)
	arr, ok := dict.Array("Inner")
	if !ok {
		t.Fatalf("Inner = %v", dict.Get("Inner"))
	}
	if arr[0] != core.Name("leaf") || arr[1] != core.Int(9) {
		t.Errorf("arr = %v", arr)
	}
}

func TestResolveDeepCycle(t *testing.T) {
	// Object 1 contains a reference back to itself: resolution must
	// terminate with the revisited reference as null.
	r := New(mapReader{
		1: core.Dict{"Self": core.IndirectRef{Num: 1}, "V": core.Int(3)},
	})
	got, err := r.ResolveDeep(core.IndirectRef{Num: 1})
	if err != nil {
		t.Fatalf("cycle resolution failed: %v", err)
	}
	dict := got.(core.Dict)
	if v, _ := dict.Int("V"); v != 3 {
		t.Errorf("V = %d", v)
	}
	if !core.IsNull(dict.Get("Self")) {
		t.Errorf("Self = %v, want null", dict.Get("Self"))
	}
}

func TestResolveShallowCycle(t *testing.T) {
	r := New(mapReader{
		1: core.IndirectRef{Num: 2},
		2: core.IndirectRef{Num: 1},
	})
	got, err := r.Resolve(core.IndirectRef{Num: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !core.IsNull(got) {
		t.Errorf("got %v, want null for reference cycle", got)
	}
}

func TestResolveDepthLimit(t *testing.T) {
	deep := make(mapReader)
	for i := 1; i < 200; i++ {
		deep[i] = core.Array{core.IndirectRef{Num: i + 1}}
	}
	deep[200] = core.Int(1)
	r := New(deep, WithMaxDepth(10))
	if _, err := r.ResolveDeep(core.IndirectRef{Num: 1}); err == nil {
		t.Error("expected depth-limit error")
	}
}
