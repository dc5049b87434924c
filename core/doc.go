// Package core implements the low levels of PDF reading: the lexer and
// object parser for the PDF object grammar, the stream decoder, object
// streams, and the cross-reference machinery that maps object numbers to
// byte offsets across incremental updates.
//
// The package operates on a complete in-memory view of the file; higher
// layers hand it the byte slice once and position parsers with Seek. Two
// parsing modes exist: Strict fails on any malformation, Permissive
// resynchronizes and repairs where the file's intent is recoverable.
package core
