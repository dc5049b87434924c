// Package contentstream parses page content streams into operator/operand
// sequences, including TJ arrays, BDC property dictionaries and inline
// images.
package contentstream
