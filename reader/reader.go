package reader

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/logger"
	"github.com/inkstream/pdftext/pages"
)

// Sentinel errors surfaced by Open. Callers match with errors.Is.
var (
	// ErrNotPDF means the file does not start with a %PDF header.
	ErrNotPDF = errors.New("pdf: file has no %PDF header")
	// ErrEncrypted means the document declares /Encrypt; encrypted files
	// are out of scope and always rejected.
	ErrEncrypted = errors.New("pdf: document is encrypted")
)

// Version is the PDF version from the file header.
type Version struct {
	Major int
	Minor int
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Option configures a Reader at open time.
type Option func(*Reader)

// WithMode selects strict or permissive reading. The default is permissive.
func WithMode(mode core.Mode) Option {
	return func(r *Reader) {
		r.mode = mode
	}
}

// Reader is an open PDF document: the complete byte view of the file, the
// merged cross-reference table, and caches for loaded objects. Once Open
// returns, a Reader is safe for concurrent use by page-extraction workers;
// the caches are guarded internally and everything else is read-only.
type Reader struct {
	data    []byte
	mode    core.Mode
	version Version
	xref    *core.XRefTable

	mu          sync.Mutex
	objCache    map[int]core.Object
	objStmCache map[int]*core.ObjectStream
	repaired    bool

	pageOnce sync.Once
	pageErr  error
	pageTree *pages.PageTree
}

// Open reads the file at path and prepares the document: header and version,
// cross-reference chain, and the encryption check. The whole file is read
// into memory and held for the lifetime of the Reader.
func Open(path string, opts ...Option) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewReader(data, opts...)
}

// NewReader opens a document already held in memory.
func NewReader(data []byte, opts ...Option) (*Reader, error) {
	r := &Reader{
		data:        data,
		mode:        core.Permissive,
		objCache:    make(map[int]core.Object),
		objStmCache: make(map[int]*core.ObjectStream),
	}
	for _, opt := range opts {
		opt(r)
	}

	version, err := parseHeader(data)
	if err != nil {
		if r.mode != core.Permissive {
			return nil, err
		}
		// A leading junk prefix before %PDF is survivable; version defaults.
		logger.Debug("reader: header unusable, assuming 1.4", "err", err)
		version = Version{1, 4}
	}
	r.version = version

	xref, err := core.LoadXRef(data, r.mode)
	if err != nil {
		return nil, fmt.Errorf("load xref: %w", err)
	}
	r.xref = xref
	r.repaired = xref.Repaired

	if r.xref.Trailer.Has("Encrypt") {
		return nil, ErrEncrypted
	}
	return r, nil
}

// Close releases the document. The byte view becomes unusable.
func (r *Reader) Close() error {
	r.data = nil
	r.ClearCache()
	return nil
}

// parseHeader extracts the version from the %PDF-x.y comment, which must
// appear within the first kilobyte.
func parseHeader(data []byte) (Version, error) {
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	head := string(data[:limit])

	idx := -1
	for i := 0; i+5 <= len(head); i++ {
		if head[i:i+5] == "%PDF-" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Version{}, ErrNotPDF
	}

	rest := head[idx+5:]
	dot := -1
	end := 0
	for end < len(rest) {
		c := rest[end]
		if c == '.' && dot < 0 {
			dot = end
			end++
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		end++
	}
	if dot <= 0 || dot == end-1 {
		return Version{}, fmt.Errorf("%w: malformed version %q", ErrNotPDF, rest[:end])
	}
	major, err1 := strconv.Atoi(rest[:dot])
	minor, err2 := strconv.Atoi(rest[dot+1 : end])
	if err1 != nil || err2 != nil {
		return Version{}, fmt.Errorf("%w: malformed version %q", ErrNotPDF, rest[:end])
	}
	return Version{Major: major, Minor: minor}, nil
}

// Version returns the header version.
func (r *Reader) Version() Version { return r.version }

// Trailer returns the merged trailer dictionary.
func (r *Reader) Trailer() core.Dict { return r.xref.Trailer }

// Repaired reports whether the cross-reference had to be rebuilt by
// scanning the file.
func (r *Reader) Repaired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.repaired
}

// XRef exposes the cross-reference table for inspection.
func (r *Reader) XRef() *core.XRefTable { return r.xref }

// ClearCache drops all cached objects.
func (r *Reader) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objCache = make(map[int]core.Object)
	r.objStmCache = make(map[int]*core.ObjectStream)
}

// GetObject loads the object with the given number at generation gen.
// A generation mismatch yields null in permissive mode and an error in
// strict mode. Unknown and free object numbers resolve to null in
// permissive mode.
func (r *Reader) GetObject(num, gen int) (core.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getObjectLocked(num, gen)
}

func (r *Reader) getObjectLocked(num, gen int) (core.Object, error) {
	if obj, ok := r.objCache[num]; ok {
		return obj, nil
	}

	entry, ok := r.xref.Lookup(num)
	if !ok {
		if r.mode == core.Permissive {
			return core.Null{}, nil
		}
		return nil, fmt.Errorf("object %d not in xref", num)
	}

	switch entry.Kind {
	case core.FreeEntry:
		if r.mode == core.Permissive {
			return core.Null{}, nil
		}
		return nil, fmt.Errorf("object %d is free", num)

	case core.InUseEntry:
		if entry.Gen != gen {
			if r.mode == core.Permissive {
				return core.Null{}, nil
			}
			return nil, fmt.Errorf("object %d generation mismatch: want %d, xref has %d", num, gen, entry.Gen)
		}
		obj, err := r.loadAt(num, gen, int(entry.Offset))
		if err != nil {
			// A wrong offset with intact object headers is the classic
			// repairable corruption: rebuild the table by scanning once,
			// then retry.
			if r.mode == core.Permissive && !r.repaired {
				logger.Debug("reader: object load failed, rebuilding xref by scan", "num", num, "err", err)
				if table, scanErr := core.ScanRebuild(r.data); scanErr == nil {
					mergeRepairs(r.xref, table)
					r.repaired = true
					if e, ok := r.xref.Lookup(num); ok && e.Kind == core.InUseEntry {
						return r.loadAt(num, gen, int(e.Offset))
					}
				}
			}
			return nil, err
		}
		return obj, nil

	case core.CompressedEntry:
		return r.loadCompressed(num, entry)

	default:
		return nil, fmt.Errorf("object %d has unknown entry kind", num)
	}
}

// loadAt parses the indirect object at offset and verifies its header
// matches the requested number, caching on success.
func (r *Reader) loadAt(num, gen, offset int) (core.Object, error) {
	if offset < 0 || offset >= len(r.data) {
		return nil, fmt.Errorf("object %d offset %d out of range", num, offset)
	}
	p := core.NewParser(r.data, r.mode)
	p.SetResolver(lockedResolver{r})
	p.Seek(offset)

	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("object %d at offset %d: %w", num, offset, err)
	}
	if ind.Ref.Num != num || ind.Ref.Gen != gen {
		return nil, fmt.Errorf("object at offset %d has header %s, want %d %d obj", offset, ind.Ref, num, gen)
	}
	r.objCache[num] = ind.Object
	return ind.Object, nil
}

// loadCompressed fetches an object stored in an object stream.
func (r *Reader) loadCompressed(num int, entry core.XRefEntry) (core.Object, error) {
	stm, ok := r.objStmCache[entry.StreamNum]
	if !ok {
		container, err := r.getObjectLocked(entry.StreamNum, 0)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamNum, err)
		}
		stream, isStream := container.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("object %d claims container %d, which is %s",
				num, entry.StreamNum, container.Kind())
		}
		stm, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, err
		}
		r.objStmCache[entry.StreamNum] = stm
	}

	obj, gotNum, err := stm.ObjectAt(entry.StreamIdx)
	if err != nil {
		return nil, err
	}
	if gotNum != num {
		// The slot index lied; fall back to a number lookup in the same
		// stream before giving up.
		obj, err = stm.ObjectByNumber(num)
		if err != nil {
			return nil, fmt.Errorf("object %d not at slot %d of stream %d", num, entry.StreamIdx, entry.StreamNum)
		}
	}
	r.objCache[num] = obj
	return obj, nil
}

// mergeRepairs overlays every scan-rebuilt entry onto the loaded table,
// replacing the loaded entry for that object number; entries the scan did
// not find are kept.
func mergeRepairs(dst, scanned *core.XRefTable) {
	for num, entry := range scanned.Entries {
		dst.Entries[num] = entry
	}
	if dst.Size < scanned.Size {
		dst.Size = scanned.Size
	}
}

// lockedResolver resolves references for a parser while the reader lock is
// already held.
type lockedResolver struct{ r *Reader }

func (lr lockedResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return lr.r.getObjectLocked(ref.Num, ref.Gen)
}

// ResolveReference loads the object a reference points at.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Num, ref.Gen)
}

// Resolve dereferences obj until it is not an indirect reference. Reference
// chains are cycle-checked.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	seen := make(map[int]bool)
	for {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		if seen[ref.Num] {
			return nil, fmt.Errorf("reference cycle through object %d", ref.Num)
		}
		seen[ref.Num] = true
		resolved, err := r.ResolveReference(ref)
		if err != nil {
			return nil, err
		}
		obj = resolved
	}
}

// Catalog returns the document catalog from the trailer's /Root.
func (r *Reader) Catalog() (core.Dict, error) {
	rootRef, ok := r.xref.Trailer.Ref("Root")
	if !ok {
		// Some generators write /Root as a direct dictionary.
		if dict, ok := r.xref.Trailer.Dict("Root"); ok {
			return dict, nil
		}
		return nil, fmt.Errorf("trailer has no /Root")
	}
	obj, err := r.ResolveReference(rootRef)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog: %w", err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is %s, not a dictionary", obj.Kind())
	}
	return catalog, nil
}

// PageCount returns the number of pages.
func (r *Reader) PageCount() (int, error) {
	if err := r.ensurePageTree(); err != nil {
		return 0, err
	}
	return r.pageTree.Count(), nil
}

// Page returns the page at index (0-based).
func (r *Reader) Page(index int) (*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.Page(index)
}

// Pages returns the flattened page list.
func (r *Reader) Pages() ([]*pages.Page, error) {
	if err := r.ensurePageTree(); err != nil {
		return nil, err
	}
	return r.pageTree.Pages(), nil
}

// ensurePageTree walks the page tree once.
func (r *Reader) ensurePageTree() error {
	r.pageOnce.Do(func() {
		catalog, err := r.Catalog()
		if err != nil {
			r.pageErr = err
			return
		}
		rootObj, err := r.Resolve(catalog.Get("Pages"))
		if err != nil {
			r.pageErr = fmt.Errorf("resolve page tree root: %w", err)
			return
		}
		root, ok := rootObj.(core.Dict)
		if !ok {
			r.pageErr = fmt.Errorf("/Pages is %T, not a dictionary", rootObj)
			return
		}
		r.pageTree, r.pageErr = pages.Walk(root, r)
	})
	return r.pageErr
}
