package resolver

import (
	"fmt"

	"github.com/inkstream/pdftext/core"
)

// ObjectReader is the object-lookup surface the resolver builds on,
// implemented by reader.Reader.
type ObjectReader interface {
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// Resolver expands indirect references inside composite objects. Cyclic
// reference graphs are legal in PDF (a page references its parent, which
// references the page); the resolver carries a visited set per top-level
// call so cycles stop expansion instead of recursing forever.
type Resolver struct {
	reader   ObjectReader
	maxDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth bounds recursion; the default is 64.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// New creates a Resolver over the given reader.
func New(reader ObjectReader, opts ...Option) *Resolver {
	r := &Resolver{reader: reader, maxDepth: 64}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve dereferences obj if it is a reference; composite members are left
// untouched.
func (r *Resolver) Resolve(obj core.Object) (core.Object, error) {
	seen := make(map[int]bool)
	for {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		if seen[ref.Num] {
			return core.Null{}, nil
		}
		seen[ref.Num] = true
		next, err := r.reader.ResolveReference(ref)
		if err != nil {
			return nil, err
		}
		obj = next
	}
}

// ResolveDeep dereferences obj and every reference nested in dictionaries,
// arrays and stream dictionaries. A reference revisited within one branch
// resolves to null, keeping self-referential structures finite.
func (r *Resolver) ResolveDeep(obj core.Object) (core.Object, error) {
	return r.deep(obj, make(map[int]bool), 0)
}

func (r *Resolver) deep(obj core.Object, seen map[int]bool, depth int) (core.Object, error) {
	if depth > r.maxDepth {
		return nil, fmt.Errorf("resolution deeper than %d levels", r.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if seen[v.Num] {
			return core.Null{}, nil
		}
		seen[v.Num] = true
		defer delete(seen, v.Num)

		resolved, err := r.reader.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", v, err)
		}
		return r.deep(resolved, seen, depth+1)

	case core.Dict:
		out := make(core.Dict, len(v))
		for key, val := range v {
			resolved, err := r.deep(val, seen, depth+1)
			if err != nil {
				return nil, fmt.Errorf("key /%s: %w", key, err)
			}
			out[key] = resolved
		}
		return out, nil

	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			resolved, err := r.deep(elem, seen, depth+1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil

	case *core.Stream:
		dict, err := r.deep(v.Dict, seen, depth+1)
		if err != nil {
			return nil, err
		}
		return &core.Stream{Dict: dict.(core.Dict), Raw: v.Raw}, nil

	default:
		return obj, nil
	}
}
