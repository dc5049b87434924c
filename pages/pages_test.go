package pages

import (
	"testing"

	"github.com/inkstream/pdftext/core"
)

// mapResolver resolves references from a fixed object map.
type mapResolver map[int]core.Object

func (m mapResolver) Resolve(obj core.Object) (core.Object, error) {
	for {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		next, ok := m[ref.Num]
		if !ok {
			return core.Null{}, nil
		}
		obj = next
	}
}

func mediaBox(x0, y0, x1, y1 int) core.Array {
	return core.Array{core.Int(x0), core.Int(y0), core.Int(x1), core.Int(y1)}
}

func TestWalkFlattensNestedTree(t *testing.T) {
	objs := mapResolver{
		10: core.Dict{"Type": core.Name("Page")},
		11: core.Dict{"Type": core.Name("Page")},
		12: core.Dict{"Type": core.Name("Page")},
		20: core.Dict{
			"Type": core.Name("Pages"),
			"Kids": core.Array{core.IndirectRef{Num: 11}, core.IndirectRef{Num: 12}},
			// Deliberately wrong /Count: the leaf count is authoritative.
			"Count": core.Int(99),
		},
	}
	root := core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  core.Array{core.IndirectRef{Num: 10}, core.IndirectRef{Num: 20}},
		"Count": core.Int(1),
	}

	tree, err := Walk(root, objs)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if tree.Count() != 3 {
		t.Fatalf("Count = %d, want 3", tree.Count())
	}
	for i := 0; i < 3; i++ {
		p, err := tree.Page(i)
		if err != nil {
			t.Fatal(err)
		}
		if p.Index() != i {
			t.Errorf("page %d has index %d", i, p.Index())
		}
	}
}

func TestWalkInheritedAttributes(t *testing.T) {
	objs := mapResolver{
		10: core.Dict{"Type": core.Name("Page")}, // inherits everything
		11: core.Dict{ // overrides the media box
			"Type":     core.Name("Page"),
			"MediaBox": mediaBox(0, 0, 200, 100),
		},
	}
	root := core.Dict{
		"Type":      core.Name("Pages"),
		"Kids":      core.Array{core.IndirectRef{Num: 10}, core.IndirectRef{Num: 11}},
		"Count":     core.Int(2),
		"MediaBox":  mediaBox(0, 0, 612, 792),
		"Rotate":    core.Int(90),
		"Resources": core.Dict{"Font": core.Dict{}},
	}

	tree, err := Walk(root, objs)
	if err != nil {
		t.Fatal(err)
	}

	first, _ := tree.Page(0)
	if got := first.MediaBox(); got != [4]float64{0, 0, 612, 792} {
		t.Errorf("inherited media box = %v", got)
	}
	if first.Rotate() != 90 {
		t.Errorf("inherited rotate = %d", first.Rotate())
	}
	res, err := first.Resources()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Has("Font") {
		t.Error("inherited resources missing /Font")
	}

	second, _ := tree.Page(1)
	if got := second.MediaBox(); got != [4]float64{0, 0, 200, 100} {
		t.Errorf("shadowed media box = %v", got)
	}
	if second.Width() != 200 || second.Height() != 100 {
		t.Errorf("dimensions = %v x %v", second.Width(), second.Height())
	}
}

func TestWalkCycleTerminates(t *testing.T) {
	objs := mapResolver{}
	inner := core.Dict{
		"Type": core.Name("Pages"),
		"Kids": core.Array{core.IndirectRef{Num: 30}, core.IndirectRef{Num: 10}},
	}
	objs[30] = inner // kid 30 refers to itself through the map
	objs[10] = core.Dict{"Type": core.Name("Page")}
	root := core.Dict{
		"Type": core.Name("Pages"),
		"Kids": core.Array{core.IndirectRef{Num: 30}},
	}

	tree, err := Walk(root, objs)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if tree.Count() != 1 {
		t.Errorf("Count = %d, want 1 page despite cycle", tree.Count())
	}
}

func TestPageDefaults(t *testing.T) {
	tree, err := Walk(core.Dict{"Type": core.Name("Page")}, mapResolver{})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := tree.Page(0)
	if got := p.MediaBox(); got != [4]float64{0, 0, 612, 792} {
		t.Errorf("default media box = %v", got)
	}
	if p.Rotate() != 0 {
		t.Errorf("default rotate = %d", p.Rotate())
	}
	res, err := p.Resources()
	if err != nil || len(res) != 0 {
		t.Errorf("default resources = %v, %v", res, err)
	}
}

func TestRotateNormalization(t *testing.T) {
	tests := []struct {
		in   int64
		want int
	}{
		{0, 0}, {90, 90}, {360, 0}, {450, 90}, {-90, 270}, {181, 180},
	}
	for _, tt := range tests {
		tree, err := Walk(core.Dict{
			"Type":   core.Name("Page"),
			"Rotate": core.Int(tt.in),
		}, mapResolver{})
		if err != nil {
			t.Fatal(err)
		}
		p, _ := tree.Page(0)
		if got := p.Rotate(); got != tt.want {
			t.Errorf("Rotate(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestContentsNormalization(t *testing.T) {
	stream := &core.Stream{Dict: core.Dict{}, Raw: []byte("BT ET")}
	objs := mapResolver{40: stream}

	single := core.Dict{"Type": core.Name("Page"), "Contents": core.IndirectRef{Num: 40}}
	tree, _ := Walk(single, objs)
	p, _ := tree.Page(0)
	streams, err := p.Contents()
	if err != nil || len(streams) != 1 {
		t.Fatalf("single stream: %v, %v", streams, err)
	}

	arr := core.Dict{
		"Type":     core.Name("Page"),
		"Contents": core.Array{core.IndirectRef{Num: 40}, core.IndirectRef{Num: 40}},
	}
	tree, _ = Walk(arr, objs)
	p, _ = tree.Page(0)
	streams, err = p.Contents()
	if err != nil || len(streams) != 2 {
		t.Fatalf("stream array: %v, %v", streams, err)
	}

	data, err := p.ContentData()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "BT ET\nBT ET" {
		t.Errorf("ContentData = %q", data)
	}
}
