// Command pdftext extracts text from PDF files.
//
//	pdftext extract [-p RANGE] [-o FILE] [--tagged] [--markdown] [-j N] PATH
//	pdftext info PATH
//	pdftext bench PATH
//
// Exit codes: 0 success, 2 file or I/O error, 3 parse or format error in
// strict mode, 4 bad arguments.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inkstream/pdftext"
	"github.com/inkstream/pdftext/internal/filters"
	"github.com/inkstream/pdftext/reader"
)

const (
	exitOK    = 0
	exitIO    = 2
	exitParse = 3
	exitArgs  = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitArgs
	}
	switch args[0] {
	case "extract":
		return cmdExtract(args[1:], stdout, stderr)
	case "info":
		return cmdInfo(args[1:], stdout, stderr)
	case "bench":
		return cmdBench(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "pdftext: unknown command %q\n", args[0])
		usage(stderr)
		return exitArgs
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage:
  pdftext extract [-p RANGE] [-o FILE] [--tagged] [--markdown] [--strict] [-j N] PATH
  pdftext info PATH
  pdftext bench PATH`)
}

func cmdExtract(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pageRange := fs.String("p", "", "page selection: A, A-B, A-, or comma-separated list (1-indexed)")
	outFile := fs.String("o", "", "write output to FILE instead of stdout")
	tagged := fs.Bool("tagged", false, "order output by the document structure tree")
	asMarkdown := fs.Bool("markdown", false, "emit Markdown with heading/list inference")
	strict := fs.Bool("strict", false, "fail on malformed input instead of repairing")
	workers := fs.Int("j", 1, "parallel page workers")
	if err := fs.Parse(args); err != nil {
		return exitArgs
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "pdftext extract: exactly one PATH required")
		return exitArgs
	}
	path := fs.Arg(0)
	if *workers < 1 {
		fmt.Fprintln(stderr, "pdftext extract: -j must be >= 1")
		return exitArgs
	}

	ex := pdftext.Open(path).Workers(*workers)
	if *tagged {
		ex = ex.Tagged()
	}
	if *strict {
		ex = ex.Strict()
	}

	if *pageRange != "" {
		count, err := ex.PageCount()
		if err != nil {
			return reportError(stderr, err)
		}
		pages, err := parsePageRange(*pageRange, count)
		if err != nil {
			fmt.Fprintf(stderr, "pdftext extract: %v\n", err)
			return exitArgs
		}
		ex = ex.Pages(pages...)
	}

	var out string
	var warns []pdftext.Warning
	var err error
	if *asMarkdown {
		out, warns, err = ex.Markdown()
	} else {
		out, warns, err = ex.Text()
	}
	if err != nil {
		return reportError(stderr, err)
	}
	for _, w := range warns {
		fmt.Fprintf(stderr, "pdftext: warning: %s\n", pdftext.FormatWarnings([]pdftext.Warning{w}))
	}

	dst := stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fmt.Fprintf(stderr, "pdftext extract: %v\n", err)
			return exitIO
		}
		defer f.Close()
		dst = f
	}
	fmt.Fprintln(dst, out)
	return exitOK
}

func cmdInfo(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "pdftext info: exactly one PATH required")
		return exitArgs
	}
	info, err := pdftext.Open(args[0]).Info()
	if err != nil {
		return reportError(stderr, err)
	}

	print := func(label, value string) {
		if value != "" {
			fmt.Fprintf(stdout, "%-10s %s\n", label+":", value)
		}
	}
	print("Title", info.Title)
	print("Author", info.Author)
	print("Subject", info.Subject)
	print("Keywords", info.Keywords)
	print("Creator", info.Creator)
	print("Producer", info.Producer)
	fmt.Fprintf(stdout, "%-10s %s\n", "Version:", info.Version)
	fmt.Fprintf(stdout, "%-10s %d\n", "Pages:", info.Pages)
	return exitOK
}

func cmdBench(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "pdftext bench: exactly one PATH required")
		return exitArgs
	}
	path := args[0]

	ex := pdftext.Open(path)
	count, err := ex.PageCount()
	if err != nil {
		return reportError(stderr, err)
	}

	start := time.Now()
	var chars int
	for i := 1; i <= count; i++ {
		pageStart := time.Now()
		text, _, err := pdftext.Open(path).Pages(i).Text()
		if err != nil {
			fmt.Fprintf(stderr, "pdftext bench: page %d: %v\n", i, err)
			continue
		}
		chars += len(text)
		fmt.Fprintf(stdout, "page %3d  %8.2fms  %7d chars\n",
			i, float64(time.Since(pageStart).Microseconds())/1000, len(text))
	}
	total := time.Since(start)
	fmt.Fprintf(stdout, "total     %8.2fms  %7d chars  %.1f pages/s\n",
		float64(total.Microseconds())/1000, chars,
		float64(count)/total.Seconds())

	benchFilters(stdout)
	return exitOK
}

// benchFilters measures round-trip throughput of the reversible filters on
// synthetic data.
func benchFilters(stdout io.Writer) {
	payload := make([]byte, 1<<20)
	for i := range payload {
		payload[i] = byte(i * 31)
	}
	measure := func(name string, f func()) {
		start := time.Now()
		f()
		elapsed := time.Since(start).Seconds()
		fmt.Fprintf(stdout, "%-10s %6.1f MB/s\n", name, 1/elapsed)
	}
	measure("asciihex", func() {
		dec, _ := filters.ASCIIHexDecode(filters.ASCIIHexEncode(payload))
		_ = dec
	})
	measure("ascii85", func() {
		dec, _ := filters.ASCII85Decode(filters.ASCII85Encode(payload))
		_ = dec
	})
	measure("runlength", func() {
		dec, _ := filters.RunLengthDecode(filters.RunLengthEncode(payload))
		_ = dec
	})
	measure("flate", func() {
		dec, _ := filters.FlateDecode(filters.FlateEncode(payload), nil)
		_ = dec
	})
}

// parsePageRange parses "A", "A-B", "A-" and comma-separated combinations,
// clamping to the page count.
func parsePageRange(spec string, count int) ([]int, error) {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if dash := strings.IndexByte(part, '-'); dash >= 0 {
			start, err := strconv.Atoi(strings.TrimSpace(part[:dash]))
			if err != nil || start < 1 {
				return nil, fmt.Errorf("bad page range %q", part)
			}
			end := count
			if rest := strings.TrimSpace(part[dash+1:]); rest != "" {
				end, err = strconv.Atoi(rest)
				if err != nil || end < start {
					return nil, fmt.Errorf("bad page range %q", part)
				}
			}
			if end > count {
				end = count
			}
			for p := start; p <= end; p++ {
				out = append(out, p)
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil || p < 1 {
			return nil, fmt.Errorf("bad page number %q", part)
		}
		if p <= count {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("page selection %q matches no pages", spec)
	}
	return out, nil
}

// reportError maps errors to exit codes: I/O and missing files are 2,
// parse and format failures are 3.
func reportError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "pdftext: %v\n", err)
	var pathErr *os.PathError
	if errors.As(err, &pathErr) || errors.Is(err, os.ErrNotExist) {
		return exitIO
	}
	if errors.Is(err, reader.ErrEncrypted) || errors.Is(err, reader.ErrNotPDF) {
		return exitParse
	}
	return exitParse
}
