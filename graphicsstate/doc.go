// Package graphicsstate models the PDF graphics and text state as the text
// interpreter needs it: the current transformation matrix, the text state
// parameters, and the q/Q save stack of value-typed states.
package graphicsstate
