// Package layout post-processes the interpreter's span stream into reading
// order: lines grouped by baseline, inter-word spaces recovered from glyph
// gaps, column gutters detected and ordered left to right, and paragraphs
// delimited by vertical whitespace.
package layout
