// Package text is the content-stream interpreter: a stack machine that
// executes the text operators against the graphics state and emits
// positioned Unicode spans. Layout and Markdown rendering build on the span
// stream it produces.
package text
