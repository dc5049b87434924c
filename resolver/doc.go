// Package resolver expands indirect references inside composite PDF
// objects, with cycle detection so self-referential dictionaries resolve to
// a finite tree.
package resolver
