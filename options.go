package pdftext

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inkstream/pdftext/layout"
	"github.com/inkstream/pdftext/markdown"
)

// ExtractOptions holds the per-extraction configuration accumulated by the
// fluent methods.
type ExtractOptions struct {
	// pages are 1-indexed page selections; nil means all pages.
	pages []int

	// Ordering: stream order by default; readingOrder applies layout
	// analysis; tagged follows the structure tree when one exists.
	readingOrder bool
	tagged       bool

	// strict fails on malformations instead of repairing.
	strict bool

	// workers bounds parallel page extraction; minimum 1.
	workers int

	// spaceThreshold is the inter-word gap fraction of an em; zero keeps
	// the default 0.15.
	spaceThreshold float64

	// pageTimeout bounds each page's extraction; zero means no limit.
	pageTimeout time.Duration

	markdownOpts markdown.Options
}

func defaultOptions() ExtractOptions {
	return ExtractOptions{workers: 1}
}

// clone deep-copies the options so chained extractors stay independent.
func (o ExtractOptions) clone() ExtractOptions {
	out := o
	if o.pages != nil {
		out.pages = append([]int(nil), o.pages...)
	}
	return out
}

func (o ExtractOptions) layoutOptions() layout.Options {
	return layout.Options{SpaceThreshold: o.spaceThreshold}
}

// Config bounds a Processor's resource use. Fields are validated before a
// processor starts.
type Config struct {
	// MaxConcurrentDocs limits documents processed at once.
	MaxConcurrentDocs int `validate:"min=1,max=64"`
	// WorkersPerDoc limits page workers within one document.
	WorkersPerDoc int `validate:"min=1,max=64"`
	// PageTimeout bounds the extraction of a single page.
	PageTimeout time.Duration `validate:"required"`
	// Strict selects strict parsing for every document.
	Strict bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrentDocs: 4,
		WorkersPerDoc:     1,
		PageTimeout:       30 * time.Second,
	}
}

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
