// Package font turns PDF font dictionaries into decoders from show-string
// bytes to Unicode text plus advance widths.
//
// Simple fonts (Type1, TrueType, Type3) decode byte-at-a-time through a
// 256-entry table assembled from the base encoding, the /Differences array
// via the Adobe glyph list, and /ToUnicode overrides. Composite Type0 fonts
// segment the byte stream through their encoding CMap's codespace ranges
// and map codes through CID data and /ToUnicode. Unmapped codes always
// decode to U+FFFD rather than being dropped.
package font
