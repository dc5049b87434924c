// Package markdown classifies laid-out text into Markdown blocks: headings
// inferred from font-size ratios against the body size, bullet and numbered
// lists from lead-in tokens, indentation from the left margin, and emphasis
// or code from typeface metadata when available.
package markdown
