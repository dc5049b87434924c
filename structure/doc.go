// Package structure walks the logical structure tree of tagged documents,
// flattening it into the per-page sequence of marked-content identifiers
// that drives tagged-order extraction.
package structure
