package structure

import (
	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/logger"
	"github.com/inkstream/pdftext/reader"
)

// Resolve dereferences an object, supplied by the reader layer.
type Resolve func(obj core.Object) (core.Object, error)

// Entry is one marked-content reference in structure-tree traversal order:
// the page it belongs to, its MCID, and the element's structure type after
// role-map translation. An element that carries /ActualText contributes a
// single replacement entry instead of its subtree's content; the subtree's
// marked-content references still appear, flagged Suppressed, so callers
// can account for their MCIDs without emitting their text twice.
type Entry struct {
	PageRef core.IndirectRef
	MCID    int
	Type    string

	// ActualText is the element-level replacement text; HasActual marks
	// the entry as a replacement rather than a marked-content reference
	// (its MCID is -1).
	ActualText string
	HasActual  bool

	// Suppressed marks a marked-content reference whose text an enclosing
	// /ActualText element already stands in for.
	Suppressed bool
}

// Tree is the logical structure of a tagged document, flattened to the
// sequence of marked-content references in depth-first element order.
type Tree struct {
	entries []Entry
	roleMap map[core.Name]core.Name
}

// Load walks /StructTreeRoot from the catalog. Documents without one yield
// a nil tree, which callers treat as "untagged".
func Load(catalog core.Dict, resolve Resolve) (*Tree, error) {
	rootObj := catalog.Get("StructTreeRoot")
	if rootObj == nil {
		return nil, nil
	}
	resolved, err := resolve(rootObj)
	if err != nil {
		return nil, err
	}
	root, ok := resolved.(core.Dict)
	if !ok {
		return nil, nil
	}

	t := &Tree{roleMap: make(map[core.Name]core.Name)}
	if rm, ok := derefDict(root.Get("RoleMap"), resolve); ok {
		for key, val := range rm {
			if mapped, ok := val.(core.Name); ok {
				t.roleMap[key] = mapped
			}
		}
	}

	visited := make(map[string]bool)
	t.walkKids(root.Get("K"), core.IndirectRef{}, "", false, resolve, visited, 0)
	return t, nil
}

// Entries returns the flattened marked-content references.
func (t *Tree) Entries() []Entry { return t.entries }

// PageOrder returns the entries of one page in tree-traversal order.
func (t *Tree) PageOrder(pageRef core.IndirectRef) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.PageRef == pageRef {
			out = append(out, e)
		}
	}
	return out
}

const maxDepth = 128

// walkKids processes a /K value, which may be a single kid or an array of
// kids; each kid is an integer MCID, an MCR dictionary, or a child element.
// suppressed is set below an element whose /ActualText replaces its
// subtree.
func (t *Tree) walkKids(k core.Object, pg core.IndirectRef, sType string, suppressed bool, resolve Resolve, visited map[string]bool, depth int) {
	if k == nil || depth > maxDepth {
		return
	}
	if ref, ok := k.(core.IndirectRef); ok {
		key := ref.String()
		if visited[key] {
			logger.Debug("structure: cycle through element", "ref", key)
			return
		}
		visited[key] = true
		resolved, err := resolve(ref)
		if err != nil {
			return
		}
		t.walkKids(resolved, pg, sType, suppressed, resolve, visited, depth+1)
		return
	}

	switch v := k.(type) {
	case core.Int:
		t.entries = append(t.entries, Entry{
			PageRef: pg, MCID: int(v), Type: sType, Suppressed: suppressed,
		})

	case core.Array:
		for _, kid := range v {
			t.walkKids(kid, pg, sType, suppressed, resolve, visited, depth+1)
		}

	case core.Dict:
		if typ, _ := v.Name("Type"); typ == "MCR" {
			mcid, ok := v.Int("MCID")
			if !ok {
				return
			}
			ref := pg
			if r, ok := v.Ref("Pg"); ok {
				ref = r
			}
			t.entries = append(t.entries, Entry{
				PageRef: ref, MCID: int(mcid), Type: sType, Suppressed: suppressed,
			})
			return
		}
		if typ, _ := v.Name("Type"); typ == "OBJR" {
			// Object references point at annotations and contribute no text.
			return
		}

		// A structure element: /S is its type, /Pg its default page.
		elemType := sType
		if s, ok := v.Name("S"); ok {
			if mapped, ok := t.roleMap[s]; ok {
				s = mapped
			}
			elemType = string(s)
		}
		if r, ok := v.Ref("Pg"); ok {
			pg = r
		}

		// An element-level /ActualText stands in for the whole subtree,
		// contributing exactly once; the subtree is still walked so its
		// MCIDs are accounted for, but flagged as suppressed.
		if at, ok := elementActualText(v, resolve); ok {
			if !suppressed {
				t.entries = append(t.entries, Entry{
					PageRef:    pg,
					MCID:       -1,
					Type:       elemType,
					ActualText: at,
					HasActual:  true,
				})
			}
			t.walkKids(v.Get("K"), pg, elemType, true, resolve, visited, depth+1)
			return
		}

		t.walkKids(v.Get("K"), pg, elemType, suppressed, resolve, visited, depth+1)
	}
}

// elementActualText reads an element's /ActualText, resolving an indirect
// string and decoding the text-string encoding.
func elementActualText(elem core.Dict, resolve Resolve) (string, bool) {
	obj := elem.Get("ActualText")
	if obj == nil {
		return "", false
	}
	resolved, err := resolve(obj)
	if err != nil {
		return "", false
	}
	s, ok := resolved.(core.String)
	if !ok {
		return "", false
	}
	return reader.DecodeTextString(string(s)), true
}

func derefDict(obj core.Object, resolve Resolve) (core.Dict, bool) {
	if obj == nil {
		return nil, false
	}
	resolved, err := resolve(obj)
	if err != nil {
		return nil, false
	}
	dict, ok := resolved.(core.Dict)
	return dict, ok
}
