// Package pdftext extracts logical text from PDF files: per page in
// content-stream order, in the reading order recovered by layout analysis,
// or in the semantic order of the document's structure tree, optionally
// rendered as Markdown with heading and list inference.
//
// Basic usage:
//
//	text, warnings, err := pdftext.Open("document.pdf").Text()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("warnings:", pdftext.FormatWarnings(warnings))
//	}
//
// With options:
//
//	md, _, err := pdftext.Open("report.pdf").
//	    Pages(1, 2, 3).
//	    Tagged().
//	    Markdown()
//
// The lower-level reader, text and layout packages are available for
// callers that need spans, boxes or custom post-processing.
package pdftext

import (
	"github.com/inkstream/pdftext/reader"
)

// Open prepares an Extractor for the file at path. The file is opened
// lazily by the first terminal operation; configuration methods chain
// without touching the disk.
//
// Example:
//
//	text, warnings, err := pdftext.Open("document.pdf").Text()
func Open(path string) *Extractor {
	return &Extractor{
		path:    path,
		options: defaultOptions(),
	}
}

// FromReader creates an Extractor over an already-open reader.Reader. The
// caller keeps ownership: terminal operations will not close it.
//
// Example:
//
//	r, err := reader.Open("document.pdf")
//	if err != nil { ... }
//	defer r.Close()
//	text, _, err := pdftext.FromReader(r).Text()
func FromReader(r *reader.Reader) *Extractor {
	return &Extractor{
		reader:  r,
		opened:  true,
		options: defaultOptions(),
	}
}

// FromBytes creates an Extractor over a document held in memory.
func FromBytes(data []byte) *Extractor {
	return &Extractor{
		data:    data,
		options: defaultOptions(),
	}
}

// Must wraps a call returning (T, error) and panics on error. Intended for
// scripts and tests.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustText wraps a terminal operation returning (T, warnings, error),
// discarding warnings and panicking on error.
func MustText[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
