// Package pages flattens the hierarchical /Pages tree into an ordered page
// list, resolving the inheritable attributes (MediaBox, CropBox, Resources,
// Rotate) as they are shadowed down the tree.
package pages
