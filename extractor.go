package pdftext

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkstream/pdftext/core"
	"github.com/inkstream/pdftext/layout"
	"github.com/inkstream/pdftext/markdown"
	"github.com/inkstream/pdftext/pages"
	"github.com/inkstream/pdftext/reader"
	"github.com/inkstream/pdftext/resolver"
	"github.com/inkstream/pdftext/structure"
	"github.com/inkstream/pdftext/text"
)

// Warning reports a non-fatal problem encountered during extraction: the
// document was readable, but something had to be repaired or skipped.
type Warning struct {
	// Page is 1-indexed; zero means the warning concerns the whole
	// document.
	Page    int
	Message string
}

// FormatWarnings renders warnings one per line for logging.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		if w.Page > 0 {
			parts[i] = fmt.Sprintf("page %d: %s", w.Page, w.Message)
		} else {
			parts[i] = w.Message
		}
	}
	return strings.Join(parts, "\n")
}

// Extractor is the fluent extraction surface. Configuration methods return
// a new Extractor, so chains are safe to fork and reuse; terminal
// operations open the file, run the pipeline, and release it.
type Extractor struct {
	path string
	data []byte

	reader *reader.Reader
	opened bool
	owns   bool

	options ExtractOptions
	err     error

	warnMu   sync.Mutex
	warnings []Warning
}

func (e *Extractor) clone() *Extractor {
	return &Extractor{
		path:     e.path,
		data:     e.data,
		reader:   e.reader,
		opened:   e.opened,
		owns:     e.owns,
		options:  e.options.clone(),
		err:      e.err,
		warnings: append([]Warning(nil), e.warnings...),
	}
}

// Pages selects pages to extract (1-indexed). Calls are cumulative; pages
// outside the document are clamped away at extraction time.
func (e *Extractor) Pages(pages ...int) *Extractor {
	out := e.clone()
	out.options.pages = append(out.options.pages, pages...)
	return out
}

// PageRange selects an inclusive 1-indexed page range.
func (e *Extractor) PageRange(start, end int) *Extractor {
	out := e.clone()
	for i := start; i <= end; i++ {
		out.options.pages = append(out.options.pages, i)
	}
	return out
}

// Tagged orders output by the document's structure tree when one exists;
// untagged documents fall back to reading order.
func (e *Extractor) Tagged() *Extractor {
	out := e.clone()
	out.options.tagged = true
	return out
}

// ReadingOrder applies layout analysis (line reconstruction, columns,
// paragraphs) instead of raw content-stream order.
func (e *Extractor) ReadingOrder() *Extractor {
	out := e.clone()
	out.options.readingOrder = true
	return out
}

// Strict makes malformations fatal instead of repaired.
func (e *Extractor) Strict() *Extractor {
	out := e.clone()
	out.options.strict = true
	return out
}

// Workers sets the number of parallel page-extraction workers. Output is
// reassembled in page order and is byte-identical to sequential
// extraction.
func (e *Extractor) Workers(n int) *Extractor {
	out := e.clone()
	if n < 1 {
		n = 1
	}
	out.options.workers = n
	return out
}

// SpaceThreshold overrides the inter-word space heuristic: a gap wider
// than the given fraction of the preceding glyph's em becomes a space.
// The default is 0.15.
func (e *Extractor) SpaceThreshold(f float64) *Extractor {
	out := e.clone()
	out.options.spaceThreshold = f
	return out
}

// PageTimeout bounds the extraction of each page.
func (e *Extractor) PageTimeout(d time.Duration) *Extractor {
	out := e.clone()
	out.options.pageTimeout = d
	return out
}

// ensureReader opens the document if no terminal operation has yet.
func (e *Extractor) ensureReader() error {
	if e.opened {
		return nil
	}
	mode := core.Permissive
	if e.options.strict {
		mode = core.Strict
	}

	var r *reader.Reader
	var err error
	switch {
	case e.data != nil:
		r, err = reader.NewReader(e.data, reader.WithMode(mode))
	case e.path != "":
		r, err = reader.Open(e.path, reader.WithMode(mode))
	default:
		return fmt.Errorf("no document source specified")
	}
	if err != nil {
		return err
	}
	e.reader = r
	e.opened = true
	e.owns = true
	if r.Repaired() {
		e.warn(0, "cross-reference table rebuilt by scanning")
	}
	return nil
}

// Close releases the underlying reader if this extractor opened it. Safe
// to call multiple times.
func (e *Extractor) Close() error {
	if e.owns && e.reader != nil {
		err := e.reader.Close()
		e.reader = nil
		e.owns = false
		return err
	}
	return nil
}

// warn records a warning; safe to call from page workers.
func (e *Extractor) warn(page int, msg string) {
	e.warnMu.Lock()
	e.warnings = append(e.warnings, Warning{Page: page, Message: msg})
	e.warnMu.Unlock()
}

// PageCount returns the number of pages. The reader stays open.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if err := e.ensureReader(); err != nil {
		return 0, err
	}
	return e.reader.PageCount()
}

// Info returns document metadata. The reader stays open.
func (e *Extractor) Info() (reader.DocInfo, error) {
	if e.err != nil {
		return reader.DocInfo{}, e.err
	}
	if err := e.ensureReader(); err != nil {
		return reader.DocInfo{}, err
	}
	return e.reader.Info()
}

// Text extracts the configured pages as plain text. This is a terminal
// operation that closes the reader it opened.
func (e *Extractor) Text() (string, []Warning, error) {
	return e.TextContext(context.Background())
}

// TextContext is Text with cooperative cancellation.
func (e *Extractor) TextContext(ctx context.Context) (string, []Warning, error) {
	pageTexts, warns, err := e.run(ctx, false)
	if err != nil {
		return "", warns, err
	}
	return strings.Join(pageTexts, "\n\n"), warns, nil
}

// Markdown extracts the configured pages as Markdown, separating pages
// with a horizontal rule. Terminal operation.
func (e *Extractor) Markdown() (string, []Warning, error) {
	return e.MarkdownContext(context.Background())
}

// MarkdownContext is Markdown with cooperative cancellation.
func (e *Extractor) MarkdownContext(ctx context.Context) (string, []Warning, error) {
	pageTexts, warns, err := e.run(ctx, true)
	if err != nil {
		return "", warns, err
	}
	return strings.Join(pageTexts, markdown.PageSeparator), warns, nil
}

// Spans extracts the positioned spans of the configured pages in stream
// order. Terminal operation.
func (e *Extractor) Spans() ([]text.Span, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	indices, err := e.resolvePages()
	if err != nil {
		return nil, e.warnings, err
	}
	var out []text.Span
	for _, idx := range indices {
		spans, err := e.pageSpans(context.Background(), idx)
		if err != nil {
			return nil, e.warnings, fmt.Errorf("page %d: %w", idx+1, err)
		}
		out = append(out, spans...)
	}
	return out, e.warnings, nil
}

// run drives the full pipeline: resolve pages, extract spans (possibly in
// parallel), render each page in the configured order and format.
func (e *Extractor) run(ctx context.Context, asMarkdown bool) ([]string, []Warning, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	if err := e.ensureReader(); err != nil {
		return nil, nil, err
	}
	defer e.Close()

	indices, err := e.resolvePages()
	if err != nil {
		return nil, e.warnings, err
	}

	tree := e.loadStructTree()

	render := func(ctx context.Context, idx int) (string, error) {
		if e.options.pageTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.options.pageTimeout)
			defer cancel()
		}
		return e.renderPage(ctx, idx, tree, asMarkdown)
	}

	texts, err := renderPages(ctx, indices, e.options.workers, render)
	if err != nil {
		return nil, e.warnings, err
	}
	return texts, e.warnings, nil
}

// resolvePages maps the 1-indexed selection to valid 0-indexed pages,
// dropping duplicates and sorting them ascending; an empty selection means
// every page.
func (e *Extractor) resolvePages() ([]int, error) {
	count, err := e.reader.PageCount()
	if err != nil {
		return nil, err
	}
	if e.options.pages == nil {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	var out []int
	seen := make(map[int]bool)
	for _, p := range e.options.pages {
		if p < 1 || p > count || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p-1)
	}
	sort.Ints(out)
	return out, nil
}

// loadStructTree loads the structure tree when tagged order was requested.
func (e *Extractor) loadStructTree() *structure.Tree {
	if !e.options.tagged {
		return nil
	}
	catalog, err := e.reader.Catalog()
	if err != nil {
		e.warn(0, fmt.Sprintf("catalog unavailable for tagged order: %v", err))
		return nil
	}
	tree, err := structure.Load(catalog, e.reader.Resolve)
	if err != nil {
		e.warn(0, fmt.Sprintf("structure tree unusable: %v", err))
		return nil
	}
	if tree == nil {
		e.warn(0, "document is untagged; falling back to reading order")
	}
	return tree
}

// pageSpans runs the content interpreter over one page.
func (e *Extractor) pageSpans(ctx context.Context, idx int) ([]text.Span, error) {
	page, err := e.reader.Page(idx)
	if err != nil {
		return nil, err
	}
	return extractSpans(ctx, e.reader, page, e.options.strict)
}

// extractSpans is the single-page core pipeline shared with the processor:
// resources, concatenated content, interpreter.
func extractSpans(ctx context.Context, r *reader.Reader, page *pages.Page, strict bool) ([]text.Span, error) {
	resources, err := page.Resources()
	if err != nil {
		if strict {
			return nil, err
		}
		resources = core.Dict{}
	}

	// Materialize the resource tree up front: fonts, XObjects and property
	// lists arrive reference-free at the interpreter, and reference cycles
	// are cut here instead of during operator processing.
	if resolved, err := resolver.New(r).ResolveDeep(resources); err == nil {
		if dict, ok := resolved.(core.Dict); ok {
			resources = dict
		}
	}
	content, err := page.ContentData()
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, nil
	}

	var opts []text.Option
	if strict {
		opts = append(opts, text.WithStrict())
	}
	ex := text.NewExtractor(resources, r.ResolveReference, opts...)
	return ex.Extract(ctx, content)
}

// renderPage produces the final text of one page in the configured order.
func (e *Extractor) renderPage(ctx context.Context, idx int, tree *structure.Tree, asMarkdown bool) (string, error) {
	page, err := e.reader.Page(idx)
	if err != nil {
		return "", err
	}
	spans, err := extractSpans(ctx, e.reader, page, e.options.strict)
	if err != nil {
		// Cancellation always propagates; other per-page failures abort
		// only this page outside strict mode.
		if e.options.strict || ctx.Err() != nil {
			return "", fmt.Errorf("page %d: %w", idx+1, err)
		}
		e.warn(idx+1, fmt.Sprintf("page skipped: %v", err))
		return "", nil
	}

	lopts := e.options.layoutOptions()

	var entries []structure.Entry
	if tree != nil {
		entries = tree.PageOrder(page.Ref())
	}

	if asMarkdown {
		if len(entries) > 0 {
			return taggedMarkdown(entries, spans, lopts), nil
		}
		return markdown.Render(layout.Analyze(spans, page.Width(), lopts), e.options.markdownOpts), nil
	}

	if len(entries) > 0 {
		return taggedText(entries, spans, lopts), nil
	}
	if e.options.readingOrder || e.options.tagged {
		return layout.Analyze(spans, page.Width(), lopts).Text(lopts), nil
	}
	return layout.StreamText(spans, lopts), nil
}

// groupByMCID buckets spans by marked-content ID, keeping stream order
// within each bucket. Spans outside marked content key as -1.
func groupByMCID(spans []text.Span) map[int][]text.Span {
	out := make(map[int][]text.Span)
	for _, s := range spans {
		out[s.MCID] = append(out[s.MCID], s)
	}
	return out
}

// taggedText emits spans in structure-tree order: each MCID exactly once,
// element-level /ActualText replacing its subtree's content, then any
// content the tree never referenced, in stream order.
func taggedText(entries []structure.Entry, spans []text.Span, lopts layout.Options) string {
	groups := groupByMCID(spans)
	consumed := make(map[int]bool)

	var blocks []string
	for _, entry := range entries {
		if entry.HasActual {
			if entry.ActualText != "" {
				blocks = append(blocks, entry.ActualText)
			}
			continue
		}
		if consumed[entry.MCID] {
			continue
		}
		consumed[entry.MCID] = true
		if entry.Suppressed {
			// The enclosing element's /ActualText already stands in for
			// this content.
			continue
		}
		if group := groups[entry.MCID]; len(group) > 0 {
			blocks = append(blocks, layout.StreamText(group, lopts))
		}
	}
	if leftover := unreferencedSpans(spans, consumed); len(leftover) > 0 {
		blocks = append(blocks, layout.StreamText(leftover, lopts))
	}
	return strings.Join(blocks, "\n")
}

// taggedMarkdown renders structure entries as Markdown blocks using their
// element types.
func taggedMarkdown(entries []structure.Entry, spans []text.Span, lopts layout.Options) string {
	groups := groupByMCID(spans)
	consumed := make(map[int]bool)

	var blocks []string
	for _, entry := range entries {
		prefix := markdown.FromStructType(entry.Type)
		if entry.HasActual {
			if entry.ActualText != "" {
				blocks = append(blocks, prefix+entry.ActualText)
			}
			continue
		}
		if consumed[entry.MCID] {
			continue
		}
		consumed[entry.MCID] = true
		if entry.Suppressed {
			continue
		}
		group := groups[entry.MCID]
		if len(group) == 0 {
			continue
		}
		content := layout.StreamText(group, lopts)
		blocks = append(blocks, prefix+strings.ReplaceAll(content, "\n", " "))
	}
	if leftover := unreferencedSpans(spans, consumed); len(leftover) > 0 {
		blocks = append(blocks, layout.StreamText(leftover, lopts))
	}
	return strings.Join(blocks, "\n\n")
}

// unreferencedSpans returns spans whose MCID the structure tree never
// mentioned, preserving stream order.
func unreferencedSpans(spans []text.Span, consumed map[int]bool) []text.Span {
	var out []text.Span
	for _, s := range spans {
		if !consumed[s.MCID] {
			out = append(out, s)
		}
	}
	return out
}
