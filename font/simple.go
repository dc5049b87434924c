package font

import (
	"fmt"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/logger"
)

// Resolve dereferences an indirect reference, supplied by the reader layer.
type Resolve func(ref core.IndirectRef) (core.Object, error)

// Load parses a font dictionary into a Font. Type1, TrueType, Type3 and
// MMType1 fonts take the simple single-byte path; Type0 fonts take the
// composite path. An unknown subtype is treated as a simple font so that a
// sloppy producer still yields text.
func Load(name string, dict core.Dict, resolve Resolve) (*Font, error) {
	subtype, _ := dict.Name("Subtype")
	switch subtype {
	case "Type0":
		return loadComposite(name, dict, resolve)
	default:
		return loadSimple(name, dict, resolve)
	}
}

// deref resolves obj if it is a reference; failures yield null.
func deref(obj core.Object, resolve Resolve) core.Object {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj
	}
	if resolve == nil {
		return core.Null{}
	}
	resolved, err := resolve(ref)
	if err != nil {
		logger.Debug("font: reference unresolved", "ref", ref.String(), "err", err)
		return core.Null{}
	}
	return resolved
}

// loadSimple builds a single-byte font: base encoding, /Differences,
// /Widths and /ToUnicode.
func loadSimple(name string, dict core.Dict, resolve Resolve) (*Font, error) {
	subtype, _ := dict.Name("Subtype")
	baseFont, _ := dict.Name("BaseFont")

	f := &Font{
		Name:     name,
		BaseFont: string(baseFont),
		Subtype:  string(subtype),
		flags:    detectStyle(string(baseFont)),
	}

	encName, encDict := fontEncoding(dict, resolve)
	f.table = baseEncoding(encName)
	if encDict != nil {
		if diffs, ok := encDict.Array("Differences"); ok {
			applyDifferences(&f.table, lowerDifferences(diffs, resolve))
		}
	}

	loadSimpleWidths(f, dict, resolve)
	loadDescriptor(f, dict, resolve)
	f.toUnicode = loadToUnicode(dict, resolve)
	return f, nil
}

// fontEncoding returns the base-encoding name and the encoding dictionary
// when /Encoding is the dictionary form.
func fontEncoding(dict core.Dict, resolve Resolve) (string, core.Dict) {
	enc := deref(dict.Get("Encoding"), resolve)
	switch v := enc.(type) {
	case core.Name:
		return string(v), nil
	case core.Dict:
		if base, ok := v.Name("BaseEncoding"); ok {
			return string(base), v
		}
		return "", v
	default:
		return "", nil
	}
}

// lowerDifferences resolves the /Differences array into ints and glyph-name
// strings for applyDifferences.
func lowerDifferences(diffs core.Array, resolve Resolve) []interface{} {
	out := make([]interface{}, 0, len(diffs))
	for _, item := range diffs {
		switch v := deref(item, resolve).(type) {
		case core.Int:
			out = append(out, int(v))
		case core.Name:
			out = append(out, string(v))
		}
	}
	return out
}

// loadSimpleWidths reads /FirstChar, /LastChar and /Widths.
func loadSimpleWidths(f *Font, dict core.Dict, resolve Resolve) {
	widthsObj := deref(dict.Get("Widths"), resolve)
	widths, ok := widthsObj.(core.Array)
	if !ok {
		return
	}
	first := int64(0)
	if v, ok := dict.Int("FirstChar"); ok {
		first = v
	}
	for i, w := range widths {
		code := int(first) + i
		if code < 0 || code > 255 {
			continue
		}
		if v, ok := core.ToFloat(deref(w, resolve)); ok {
			f.widths[code] = v
		}
	}
	f.hasWidths = true
}

// loadDescriptor pulls /MissingWidth and the style flags from the font
// descriptor when present.
func loadDescriptor(f *Font, dict core.Dict, resolve Resolve) {
	desc, ok := deref(dict.Get("FontDescriptor"), resolve).(core.Dict)
	if !ok {
		return
	}
	if mw, ok := desc.Float("MissingWidth"); ok {
		f.missingWidth = mw
	}
	if flags, ok := desc.Int("Flags"); ok {
		const (
			fixedPitch = 1 << 0
			italicFlag = 1 << 6
			forceBold  = 1 << 18
		)
		f.flags.Mono = f.flags.Mono || flags&fixedPitch != 0
		f.flags.Italic = f.flags.Italic || flags&italicFlag != 0
		f.flags.Bold = f.flags.Bold || flags&forceBold != 0
	}
}

// loadToUnicode parses the /ToUnicode CMap stream if present.
func loadToUnicode(dict core.Dict, resolve Resolve) *CMap {
	stream, ok := deref(dict.Get("ToUnicode"), resolve).(*core.Stream)
	if !ok {
		return nil
	}
	cm, err := ParseCMapStream(stream)
	if err != nil {
		logger.Debug("font: unusable ToUnicode map", "err", err)
		return nil
	}
	return cm
}

// loadComposite builds a Type0 font: the /Encoding CMap selecting code
// widths, the descendant CIDFont's width data, and /ToUnicode.
func loadComposite(name string, dict core.Dict, resolve Resolve) (*Font, error) {
	baseFont, _ := dict.Name("BaseFont")
	f := &Font{
		Name:      name,
		BaseFont:  string(baseFont),
		Subtype:   "Type0",
		composite: true,
		defaultW:  1000,
		flags:     detectStyle(string(baseFont)),
	}

	switch enc := deref(dict.Get("Encoding"), resolve).(type) {
	case core.Name:
		switch enc {
		case "Identity-H":
			f.encoding = IdentityCMap(false)
		case "Identity-V":
			f.encoding = IdentityCMap(true)
			f.vertical = true
		default:
			// Registered CJK CMaps are not shipped; identity keeps the
			// byte stream segmentable and ToUnicode usually recovers text.
			logger.Debug("font: predefined CMap unavailable, using identity", "cmap", enc)
			f.encoding = IdentityCMap(false)
		}
	case *core.Stream:
		cm, err := ParseCMapStream(enc)
		if err != nil {
			return nil, fmt.Errorf("font %s: embedded CMap: %w", name, err)
		}
		if !cm.HasCodespaces() {
			cm.Merge(IdentityCMap(false))
		}
		f.encoding = cm
		f.vertical = cm.Vertical()
	default:
		f.encoding = IdentityCMap(false)
	}

	if err := loadDescendant(f, dict, resolve); err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}
	f.toUnicode = loadToUnicode(dict, resolve)
	return f, nil
}

// loadDescendant reads the CIDFont dictionary: /DW and /W.
func loadDescendant(f *Font, dict core.Dict, resolve Resolve) error {
	arr, ok := deref(dict.Get("DescendantFonts"), resolve).(core.Array)
	if !ok || len(arr) == 0 {
		return fmt.Errorf("missing /DescendantFonts")
	}
	desc, ok := deref(arr[0], resolve).(core.Dict)
	if !ok {
		return fmt.Errorf("descendant font is not a dictionary")
	}

	if dw, ok := desc.Float("DW"); ok {
		f.defaultW = dw
	}
	if w, ok := deref(desc.Get("W"), resolve).(core.Array); ok {
		f.cidWidths = parseCIDWidths(w, resolve)
	}
	loadDescriptor(f, desc, resolve)
	return nil
}

// parseCIDWidths parses the /W array's two forms: "c [w1 w2 ...]" listing
// consecutive widths from c, and "c1 c2 w" giving one width to a range.
func parseCIDWidths(arr core.Array, resolve Resolve) []cidWidthRange {
	var out []cidWidthRange
	for i := 0; i < len(arr); {
		first, ok := core.ToFloat(deref(arr[i], resolve))
		if !ok {
			i++
			continue
		}
		if i+1 >= len(arr) {
			break
		}
		switch next := deref(arr[i+1], resolve).(type) {
		case core.Array:
			widths := make([]float64, 0, len(next))
			for _, w := range next {
				if v, ok := core.ToFloat(deref(w, resolve)); ok {
					widths = append(widths, v)
				}
			}
			out = append(out, cidWidthRange{First: uint32(first), Widths: widths})
			i += 2
		default:
			if i+2 >= len(arr) {
				return out
			}
			last, ok1 := core.ToFloat(next)
			width, ok2 := core.ToFloat(deref(arr[i+2], resolve))
			if ok1 && ok2 {
				out = append(out, cidWidthRange{First: uint32(first), Last: uint32(last), Width: width})
			}
			i += 3
		}
	}
	return out
}
