// Package testbuild constructs minimal synthetic PDF files for tests. It
// tracks byte offsets as objects are appended so cross-reference sections
// can be emitted with correct entries, including incremental updates, xref
// streams and object streams.
package testbuild

import (
	"bytes"
	"fmt"
	"sort"
)

// Builder accumulates a PDF file.
type Builder struct {
	buf     bytes.Buffer
	offsets map[int]int
}

// New starts a file with the given header version, e.g. "1.7".
func New(version string) *Builder {
	b := &Builder{offsets: make(map[int]int)}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

// Len returns the current file length.
func (b *Builder) Len() int { return b.buf.Len() }

// Offset returns the recorded offset of an object.
func (b *Builder) Offset(num int) int { return b.offsets[num] }

// Raw appends arbitrary bytes without recording an offset.
func (b *Builder) Raw(s string) { b.buf.WriteString(s) }

// Add appends "num 0 obj <body> endobj", recording its offset.
func (b *Builder) Add(num int, body string) {
	b.offsets[num] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
}

// AddStream appends a stream object with the given extra dictionary entries
// (without << >>); /Length is added automatically.
func (b *Builder) AddStream(num int, dict string, data []byte) {
	b.offsets[num] = b.buf.Len()
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", num, dict, len(data))
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
}

// WriteXRef appends a classic xref table covering all objects added so far,
// a trailer with the given extra entries (e.g. "/Root 1 0 R"), startxref and
// %%EOF. Size is computed automatically.
func (b *Builder) WriteXRef(trailerExtra string) {
	start := b.buf.Len()

	nums := b.sortedNums()
	size := 1
	if len(nums) > 0 {
		size = nums[len(nums)-1] + 1
	}

	b.buf.WriteString("xref\n")
	// Subsection 0: the free-list head.
	b.buf.WriteString("0 1\n0000000000 65535 f \n")
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&b.buf, "%d %d\n", nums[i], j-i+1)
		for k := i; k <= j; k++ {
			fmt.Fprintf(&b.buf, "%010d %05d n \n", b.offsets[nums[k]], 0)
		}
		i = j + 1
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, trailerExtra, start)
}

// WriteXRefUpdate appends an incremental-update xref covering only the given
// object numbers, chained to a previous xref at prevOffset.
func (b *Builder) WriteXRefUpdate(nums []int, trailerExtra string, prevOffset int) {
	start := b.buf.Len()
	sorted := append([]int(nil), nums...)
	sort.Ints(sorted)

	size := 1
	for n := range b.offsets {
		if n+1 > size {
			size = n + 1
		}
	}

	b.buf.WriteString("xref\n")
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		fmt.Fprintf(&b.buf, "%d %d\n", sorted[i], j-i+1)
		for k := i; k <= j; k++ {
			fmt.Fprintf(&b.buf, "%010d %05d n \n", b.offsets[sorted[k]], 0)
		}
		i = j + 1
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Prev %d %s >>\nstartxref\n%d\n%%%%EOF\n",
		size, prevOffset, trailerExtra, start)
}

// WriteXRefStream appends an uncompressed cross-reference stream as object
// num covering all objects added so far plus itself, then startxref and
// %%EOF. Extra entries for compressed objects can be supplied via
// compressed, mapping object number to (stream number, index).
func (b *Builder) WriteXRefStream(num int, trailerExtra string, compressed map[int][2]int) {
	start := b.buf.Len()
	b.offsets[num] = start

	all := b.sortedNums()
	size := all[len(all)-1] + 1
	for n := range compressed {
		if n+1 > size {
			size = n + 1
		}
	}

	// W [1 4 2]: one byte kind, four bytes offset, two bytes generation.
	var index bytes.Buffer
	var rows bytes.Buffer
	writeRow := func(kind byte, f2 uint32, f3 uint16) {
		rows.WriteByte(kind)
		rows.Write([]byte{byte(f2 >> 24), byte(f2 >> 16), byte(f2 >> 8), byte(f2)})
		rows.Write([]byte{byte(f3 >> 8), byte(f3)})
	}

	nums := all
	for n := range compressed {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&index, "%d %d ", nums[i], j-i+1)
		for k := i; k <= j; k++ {
			n := nums[k]
			if slot, ok := compressed[n]; ok {
				writeRow(2, uint32(slot[0]), uint16(slot[1]))
			} else {
				writeRow(1, uint32(b.offsets[n]), 0)
			}
		}
		i = j + 1
	}

	data := rows.Bytes()
	fmt.Fprintf(&b.buf,
		"%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 2] /Index [%s] %s /Length %d >>\nstream\n",
		num, size, bytes.TrimSpace(index.Bytes()), trailerExtra, len(data))
	b.buf.Write(data)
	fmt.Fprintf(&b.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", start)
}

// ObjStmData packs the given objects (number, body) into object-stream
// payload form, returning the payload and the /First offset.
func ObjStmData(objs [][2]string) (payload []byte, first int) {
	var header, bodies bytes.Buffer
	for _, o := range objs {
		fmt.Fprintf(&header, "%s %d ", o[0], bodies.Len())
		bodies.WriteString(o[1])
		bodies.WriteString(" ")
	}
	h := header.Bytes()
	return append(h, bodies.Bytes()...), len(h)
}

// Bytes returns the accumulated file.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }

func (b *Builder) sortedNums() []int {
	nums := make([]int, 0, len(b.offsets))
	for n := range b.offsets {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// SimpleDoc builds a complete one-page document whose content stream is the
// given text operators, returning the file bytes. Useful as a base case in
// reader and extraction tests.
func SimpleDoc(content string) []byte {
	b := New("1.7")
	b.Add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.Add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>")
	b.AddStream(4, "", []byte(content))
	b.Add(5, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.WriteXRef("/Root 1 0 R")
	return b.Bytes()
}
