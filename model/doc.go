// Package model holds the small geometric types shared across the extraction
// pipeline: points, affine matrices, and page-space rectangles.
package model
