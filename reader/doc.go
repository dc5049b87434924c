// Package reader opens PDF documents and serves object lookups to the rest
// of the pipeline. A Reader owns the complete byte view of the file, the
// merged cross-reference table, and the object caches; after Open it is safe
// to share read-only across page-extraction workers.
package reader
