package core

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/inkstream/pdftext/internal/testbuild"
)

func buildSimple() *testbuild.Builder {
	b := testbuild.New("1.7")
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	return b
}

func TestLoadClassicXRef(t *testing.T) {
	b := buildSimple()
	b.WriteXRef("/Root 1 0 R")
	data := b.Bytes()

	table, err := LoadXRef(data, Strict)
	if err != nil {
		t.Fatalf("LoadXRef: %v", err)
	}
	if table.Repaired {
		t.Error("intact file reported as repaired")
	}
	if root, ok := table.Trailer.Ref("Root"); !ok || root.Num != 1 {
		t.Errorf("trailer /Root = %v", table.Trailer.Get("Root"))
	}

	for num := 1; num <= 2; num++ {
		entry, ok := table.Lookup(num)
		if !ok {
			t.Fatalf("object %d missing from table", num)
		}
		if entry.Kind != InUseEntry {
			t.Errorf("object %d kind = %v", num, entry.Kind)
		}
		if int(entry.Offset) != b.Offset(num) {
			t.Errorf("object %d offset = %d, want %d", num, entry.Offset, b.Offset(num))
		}
	}

	// Invariant: every in-use entry points at "num gen obj".
	for num, entry := range table.Entries {
		if entry.Kind != InUseEntry {
			continue
		}
		head := fmt.Sprintf("%d %d obj", num, entry.Gen)
		if !bytes.HasPrefix(data[entry.Offset:], []byte(head)) {
			t.Errorf("entry %d points at %q, want prefix %q", num, data[entry.Offset:entry.Offset+10], head)
		}
	}
}

func TestLoadXRefFreeEntry(t *testing.T) {
	b := buildSimple()
	b.WriteXRef("/Root 1 0 R")
	table, err := LoadXRef(b.Bytes(), Strict)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := table.Lookup(0)
	if !ok || entry.Kind != FreeEntry {
		t.Errorf("object 0 = %+v, want free entry", entry)
	}
}

func TestIncrementalUpdateShadowing(t *testing.T) {
	// Revision 1 maps object 5 to (A); the appended revision remaps it to (B).
	b := testbuild.New("1.4")
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.Add(5, "(A)")
	b.WriteXRef("/Root 1 0 R")
	// The first occurrence of the xref keyword is the base revision's
	// table ("startxref" later in the file also contains the substring).
	firstXRef := bytes.Index(b.Bytes(), []byte("xref"))

	b.Add(5, "(B)")
	b.WriteXRefUpdate([]int{5}, "/Root 1 0 R", firstXRef)
	data := b.Bytes()

	table, err := LoadXRef(data, Strict)
	if err != nil {
		t.Fatalf("LoadXRef: %v", err)
	}
	entry, ok := table.Lookup(5)
	if !ok {
		t.Fatal("object 5 missing")
	}
	p := NewParser(data, Strict)
	p.Seek(int(entry.Offset))
	ind, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatal(err)
	}
	if ind.Object != String("B") {
		t.Errorf("object 5 resolves to %v, want (B)", ind.Object)
	}
	// Objects only present in the base revision remain reachable.
	if _, ok := table.Lookup(1); !ok {
		t.Error("object 1 lost after incremental update")
	}
}

func TestXRefPrevCycle(t *testing.T) {
	b := buildSimple()
	b.WriteXRef("/Root 1 0 R")
	data := b.Bytes()

	// Point the trailer's /Prev at the same xref section to form a cycle.
	xrefAt := bytes.Index(data, []byte("xref"))
	cyclic := bytes.Replace(data, []byte("/Root 1 0 R"),
		[]byte(fmt.Sprintf("/Root 1 0 R /Prev %d", xrefAt)), 1)

	if _, err := LoadXRef(cyclic, Strict); !errors.Is(err, ErrXRefCycle) {
		t.Errorf("strict: got %v, want ErrXRefCycle", err)
	}

	table, err := LoadXRef(cyclic, Permissive)
	if err != nil {
		t.Fatalf("permissive: %v", err)
	}
	if _, ok := table.Lookup(1); !ok {
		t.Error("permissive cycle handling lost entries")
	}
}

func TestLoadXRefStream(t *testing.T) {
	b := buildSimple()
	b.WriteXRefStream(3, "/Root 1 0 R", nil)
	data := b.Bytes()

	table, err := LoadXRef(data, Strict)
	if err != nil {
		t.Fatalf("LoadXRef: %v", err)
	}
	for num := 1; num <= 3; num++ {
		entry, ok := table.Lookup(num)
		if !ok || entry.Kind != InUseEntry {
			t.Fatalf("object %d = %+v", num, entry)
		}
		if int(entry.Offset) != b.Offset(num) {
			t.Errorf("object %d offset = %d, want %d", num, entry.Offset, b.Offset(num))
		}
	}
}

func TestLoadXRefStreamCompressedEntries(t *testing.T) {
	b := buildSimple()
	b.WriteXRefStream(3, "/Root 1 0 R", map[int][2]int{7: {6, 0}, 8: {6, 1}})
	table, err := LoadXRef(b.Bytes(), Strict)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := table.Lookup(7)
	if !ok || entry.Kind != CompressedEntry {
		t.Fatalf("object 7 = %+v, want compressed", entry)
	}
	if entry.StreamNum != 6 || entry.StreamIdx != 0 {
		t.Errorf("object 7 slot = (%d, %d), want (6, 0)", entry.StreamNum, entry.StreamIdx)
	}
}

func TestScanRebuild(t *testing.T) {
	b := buildSimple()
	b.Add(3, "(three)")
	b.Add(4, "(text)")
	b.WriteXRef("/Root 1 0 R")
	data := b.Bytes()

	// Corrupt the startxref keyword so only repair can succeed.
	broken := bytes.Replace(data, []byte("startxref"), []byte("startxrfe"), 1)

	if _, err := LoadXRef(broken, Strict); err == nil {
		t.Error("strict mode should fail without startxref")
	}

	table, err := LoadXRef(broken, Permissive)
	if err != nil {
		t.Fatalf("permissive repair: %v", err)
	}
	if !table.Repaired {
		t.Error("Repaired flag not set")
	}
	for num := 1; num <= 4; num++ {
		entry, ok := table.Lookup(num)
		if !ok {
			t.Fatalf("rebuilt table missing object %d", num)
		}
		if int(entry.Offset) != b.Offset(num) {
			t.Errorf("object %d offset = %d, want %d", num, entry.Offset, b.Offset(num))
		}
	}
	if root, ok := table.Trailer.Ref("Root"); !ok || root.Num != 1 {
		t.Errorf("recovered trailer /Root = %v", table.Trailer.Get("Root"))
	}
}

func TestScanRebuildNoTrailer(t *testing.T) {
	// No trailer at all: the catalog must be found by parsing objects.
	b := testbuild.New("1.3")
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	table, err := ScanRebuild(b.Bytes())
	if err != nil {
		t.Fatalf("ScanRebuild: %v", err)
	}
	if root, ok := table.Trailer.Ref("Root"); !ok || root.Num != 1 {
		t.Errorf("trailer /Root = %v", table.Trailer.Get("Root"))
	}
}

func TestScanRebuildLaterWins(t *testing.T) {
	b := testbuild.New("1.4")
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.Add(5, "(old)")
	first := b.Offset(5)
	b.Add(5, "(new)")
	if first == b.Offset(5) {
		t.Fatal("builder did not append second copy")
	}
	table, err := ScanRebuild(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	entry, _ := table.Lookup(5)
	if int(entry.Offset) != b.Offset(5) {
		t.Errorf("object 5 offset = %d, want later occurrence %d", entry.Offset, b.Offset(5))
	}
}
