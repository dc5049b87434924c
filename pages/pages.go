package pages

import (
	"fmt"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/logger"
)

// Resolver dereferences indirect objects for the tree walk.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// inherited are the page attributes that flow down the tree, shadowed by
// closer definitions: /Resources, /MediaBox, /CropBox and /Rotate.
type inherited struct {
	Resources core.Object
	MediaBox  core.Object
	CropBox   core.Object
	Rotate    core.Object
}

func (in inherited) shadow(node core.Dict) inherited {
	if v := node.Get("Resources"); v != nil {
		in.Resources = v
	}
	if v := node.Get("MediaBox"); v != nil {
		in.MediaBox = v
	}
	if v := node.Get("CropBox"); v != nil {
		in.CropBox = v
	}
	if v := node.Get("Rotate"); v != nil {
		in.Rotate = v
	}
	return in
}

// PageTree is the flattened page list produced by walking the /Pages
// hierarchy depth first.
type PageTree struct {
	pages []*Page
	// nextRef carries the indirect reference of the kid currently being
	// walked, so leaf pages remember their own object identity for
	// structure-tree /Pg matching.
	nextRef core.IndirectRef
}

// Walk traverses the tree from root and produces the dense 0-indexed page
// list. /Count is advisory only; the real count is the number of /Page
// leaves encountered. Reference cycles in /Kids terminate the affected
// branch.
func Walk(root core.Dict, resolver Resolver) (*PageTree, error) {
	t := &PageTree{}
	visited := make(map[string]bool)
	if err := t.walk(root, inherited{}, resolver, visited, 0); err != nil {
		return nil, err
	}
	return t, nil
}

const maxTreeDepth = 64

func (t *PageTree) walk(node core.Dict, in inherited, resolver Resolver, visited map[string]bool, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree deeper than %d levels", maxTreeDepth)
	}
	in = in.shadow(node)

	typ, _ := node.Name("Type")
	kids, hasKids := node.Array("Kids")
	if kidsObj := node.Get("Kids"); !hasKids && kidsObj != nil {
		if resolved, err := resolver.Resolve(kidsObj); err == nil {
			kids, hasKids = resolved.(core.Array)
		}
	}

	// A node with /Kids is an interior node even when /Type is missing or
	// wrong; a node without is treated as a leaf when it is page-like.
	if typ == "Pages" || (typ == "" && hasKids) {
		if !hasKids {
			return fmt.Errorf("/Pages node without usable /Kids")
		}
		for i, kidObj := range kids {
			var kidRef core.IndirectRef
			if ref, ok := kidObj.(core.IndirectRef); ok {
				key := ref.String()
				if visited[key] {
					logger.Debug("pages: cycle in page tree", "ref", key)
					continue
				}
				visited[key] = true
				kidRef = ref
			}
			kid, err := resolver.Resolve(kidObj)
			if err != nil {
				return fmt.Errorf("kid %d: %w", i, err)
			}
			kidDict, ok := kid.(core.Dict)
			if !ok {
				logger.Debug("pages: kid is not a dictionary", "index", i, "kind", fmt.Sprintf("%T", kid))
				continue
			}
			t.nextRef = kidRef
			if err := t.walk(kidDict, in, resolver, visited, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if typ != "Page" && typ != "" {
		logger.Debug("pages: skipping node with unexpected type", "type", typ)
		return nil
	}
	t.pages = append(t.pages, &Page{
		dict:      node,
		inherited: in,
		resolver:  resolver,
		index:     len(t.pages),
		ref:       t.nextRef,
	})
	return nil
}

// Count returns the number of pages found.
func (t *PageTree) Count() int { return len(t.pages) }

// Page returns the page at index.
func (t *PageTree) Page(index int) (*Page, error) {
	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}
	return t.pages[index], nil
}

// Pages returns all pages in document order.
func (t *PageTree) Pages() []*Page { return t.pages }

// Page is one resolved page: its dictionary plus the attribute values
// inherited from ancestors at walk time.
type Page struct {
	dict      core.Dict
	inherited inherited
	resolver  Resolver
	index     int
	ref       core.IndirectRef
}

// Index returns the page's 0-based position in the document.
func (p *Page) Index() int { return p.index }

// Ref returns the page's own indirect reference when it was reached through
// one; a zero reference means the page dictionary was inlined.
func (p *Page) Ref() core.IndirectRef { return p.ref }

// Dict returns the raw page dictionary.
func (p *Page) Dict() core.Dict { return p.dict }

// MediaBox returns the page media box, defaulting to US Letter when absent.
func (p *Page) MediaBox() [4]float64 {
	if box, ok := p.box(p.inherited.MediaBox); ok {
		return box
	}
	return [4]float64{0, 0, 612, 792}
}

// CropBox returns the crop box, defaulting to the media box.
func (p *Page) CropBox() [4]float64 {
	if box, ok := p.box(p.inherited.CropBox); ok {
		return box
	}
	return p.MediaBox()
}

func (p *Page) box(obj core.Object) ([4]float64, bool) {
	var box [4]float64
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return box, false
	}
	arr, ok := resolved.(core.Array)
	if !ok || len(arr) != 4 {
		return box, false
	}
	for i := range box {
		v, ok := arr.Float(i)
		if !ok {
			return box, false
		}
		box[i] = v
	}
	// Normalize so (x0, y0) is the lower-left corner.
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, true
}

// Width returns the media-box width.
func (p *Page) Width() float64 {
	box := p.MediaBox()
	return box[2] - box[0]
}

// Height returns the media-box height.
func (p *Page) Height() float64 {
	box := p.MediaBox()
	return box[3] - box[1]
}

// Rotate returns the page rotation normalized to 0, 90, 180 or 270.
func (p *Page) Rotate() int {
	resolved, err := p.resolver.Resolve(p.inherited.Rotate)
	if err != nil {
		return 0
	}
	n, ok := resolved.(core.Int)
	if !ok {
		return 0
	}
	rot := int(n) % 360
	if rot < 0 {
		rot += 360
	}
	return rot - rot%90
}

// Resources returns the effective resource dictionary, possibly inherited.
func (p *Page) Resources() (core.Dict, error) {
	resolved, err := p.resolver.Resolve(p.inherited.Resources)
	if err != nil {
		return nil, fmt.Errorf("resolve /Resources: %w", err)
	}
	if core.IsNull(resolved) {
		return core.Dict{}, nil
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("/Resources is %s, not a dictionary", resolved.Kind())
	}
	return dict, nil
}

// Contents returns the page's content streams in concatenation order.
// A single stream and an array of streams are both normalized to a slice;
// unresolvable elements are dropped.
func (p *Page) Contents() ([]*core.Stream, error) {
	resolved, err := p.resolver.Resolve(p.dict.Get("Contents"))
	if err != nil {
		return nil, fmt.Errorf("resolve /Contents: %w", err)
	}
	switch v := resolved.(type) {
	case nil, core.Null:
		return nil, nil
	case *core.Stream:
		return []*core.Stream{v}, nil
	case core.Array:
		streams := make([]*core.Stream, 0, len(v))
		for i, elem := range v {
			r, err := p.resolver.Resolve(elem)
			if err != nil {
				logger.Debug("pages: content stream unresolved", "index", i, "err", err)
				continue
			}
			if s, ok := r.(*core.Stream); ok {
				streams = append(streams, s)
			}
		}
		return streams, nil
	default:
		return nil, fmt.Errorf("/Contents is %s", resolved.Kind())
	}
}

// ContentData decodes and concatenates all content streams, joined with a
// single whitespace byte so operators never fuse across boundaries.
func (p *Page) ContentData() ([]byte, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, s := range streams {
		data, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode content stream: %w", err)
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, data...)
	}
	return out, nil
}
