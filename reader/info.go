package reader

import (
	"unicode/utf16"

	"github.com/inkstream/pdftext/core"
)

// DocInfo is the document metadata gathered from the /Info dictionary, the
// header version and the page tree.
type DocInfo struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
	Version  string
	Pages    int
}

// Info collects document metadata. Absent /Info entries leave fields empty;
// a page-tree failure leaves Pages at zero rather than failing metadata as
// a whole.
func (r *Reader) Info() (DocInfo, error) {
	info := DocInfo{Version: r.version.String()}

	if n, err := r.PageCount(); err == nil {
		info.Pages = n
	}

	ref, ok := r.xref.Trailer.Ref("Info")
	if !ok {
		return info, nil
	}
	obj, err := r.ResolveReference(ref)
	if err != nil {
		if r.mode == core.Permissive {
			return info, nil
		}
		return info, err
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return info, nil
	}

	get := func(key core.Name) string {
		raw, err := r.Resolve(dict.Get(key))
		if err != nil {
			return ""
		}
		if s, ok := raw.(core.String); ok {
			return DecodeTextString(string(s))
		}
		return ""
	}
	info.Title = get("Title")
	info.Author = get("Author")
	info.Subject = get("Subject")
	info.Keywords = get("Keywords")
	info.Creator = get("Creator")
	info.Producer = get("Producer")
	return info, nil
}

// DecodeTextString interprets a PDF text string: UTF-16BE when it carries
// the FEFF byte-order mark, UTF-8 when it carries the PDF 2.0 EF BB BF mark,
// and PDFDocEncoding otherwise.
func DecodeTextString(s string) string {
	if len(s) >= 2 && s[0] == 0xfe && s[1] == 0xff {
		return decodeUTF16BE(s[2:])
	}
	if len(s) >= 3 && s[0] == 0xef && s[1] == 0xbb && s[2] == 0xbf {
		return s[3:]
	}
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, pdfDocRune(s[i]))
	}
	return string(out)
}

func decodeUTF16BE(s string) string {
	units := make([]uint16, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		units = append(units, uint16(s[i])<<8|uint16(s[i+1]))
	}
	return string(utf16.Decode(units))
}

// pdfDocRune maps one PDFDocEncoding byte to Unicode. The encoding agrees
// with Latin-1 except for the 0x18-0x1F and 0x80-0x9F ranges and 0xA0,
// which maps to the euro sign.
func pdfDocRune(b byte) rune {
	if r, ok := pdfDocSpecials[b]; ok {
		return r
	}
	return rune(b)
}

var pdfDocSpecials = map[byte]rune{
	0x18: '˘', // breve
	0x19: 'ˇ', // caron
	0x1a: 'ˆ', // circumflex accent
	0x1b: '˙', // dot above
	0x1c: '˝', // double acute
	0x1d: '˛', // ogonek
	0x1e: '˚', // ring above
	0x1f: '˜', // small tilde
	0x80: '•', // bullet
	0x81: '†', // dagger
	0x82: '‡', // double dagger
	0x83: '…', // ellipsis
	0x84: '—', // em dash
	0x85: '–', // en dash
	0x86: 'ƒ', // florin
	0x87: '⁄', // fraction slash
	0x88: '‹', // single left guillemet
	0x89: '›', // single right guillemet
	0x8a: '−', // minus
	0x8b: '‰', // per mille
	0x8c: '„', // double low quote
	0x8d: '“', // left double quote
	0x8e: '”', // right double quote
	0x8f: '‘', // left single quote
	0x90: '’', // right single quote
	0x91: '‚', // single low quote
	0x92: '™', // trademark
	0x93: 'ﬁ', // fi ligature
	0x94: 'ﬂ', // fl ligature
	0x95: 'Ł', // L with stroke
	0x96: 'Œ', // OE ligature
	0x97: 'Š', // S with caron
	0x98: 'Ÿ', // Y with diaeresis
	0x99: 'Ž', // Z with caron
	0x9a: 'ı', // dotless i
	0x9b: 'ł', // l with stroke
	0x9c: 'œ', // oe ligature
	0x9d: 'š', // s with caron
	0x9e: 'ž', // z with caron
	0xa0: '€', // euro
}
