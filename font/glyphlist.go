package font

import "strconv"

// glyphToRune translates an Adobe glyph name to its Unicode scalar. Named
// entries come from the Adobe Glyph List; uniXXXX and uXXXX[XX] forms are
// decoded algorithmically. The bool result is false for unknown names.
func glyphToRune(name string) (rune, bool) {
	if r, ok := glyphList[name]; ok {
		return r, true
	}
	if len(name) >= 7 && name[:3] == "uni" {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if len(name) >= 5 && name[0] == 'u' {
		hex := name[1:]
		if len(hex) >= 4 && len(hex) <= 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil && v <= 0x10ffff {
				return rune(v), true
			}
		}
	}
	// Single-character names map to themselves (a, B, three, ...).
	if len(name) == 1 {
		c := name[0]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return rune(c), true
		}
	}
	return 0, false
}

// glyphList is the portion of the Adobe Glyph List covering the Latin
// repertoire of the standard encodings plus the punctuation, ligature and
// symbol names that show up in /Differences arrays in practice.
var glyphList = map[string]rune{
	"A": 'A', "B": 'B', "C": 'C', "D": 'D', "E": 'E', "F": 'F', "G": 'G',
	"H": 'H', "I": 'I', "J": 'J', "K": 'K', "L": 'L', "M": 'M', "N": 'N',
	"O": 'O', "P": 'P', "Q": 'Q', "R": 'R', "S": 'S', "T": 'T', "U": 'U',
	"V": 'V', "W": 'W', "X": 'X', "Y": 'Y', "Z": 'Z',
	"a": 'a', "b": 'b', "c": 'c', "d": 'd', "e": 'e', "f": 'f', "g": 'g',
	"h": 'h', "i": 'i', "j": 'j', "k": 'k', "l": 'l', "m": 'm', "n": 'n',
	"o": 'o', "p": 'p', "q": 'q', "r": 'r', "s": 's', "t": 't', "u": 'u',
	"v": 'v', "w": 'w', "x": 'x', "y": 'y', "z": 'z',

	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',

	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@',
	"bracketleft": '[', "backslash": '\\', "bracketright": ']',
	"asciicircum": '^', "underscore": '_', "grave": '`',
	"braceleft": '{', "bar": '|', "braceright": '}', "asciitilde": '~',

	"quoteleft": '‘', "quoteright": '’',
	"quotedblleft": '“', "quotedblright": '”',
	"quotesinglbase": '‚', "quotedblbase": '„',
	"guillemotleft": '«', "guillemotright": '»',
	"guilsinglleft": '‹', "guilsinglright": '›',
	"endash": '–', "emdash": '—', "minus": '−',
	"bullet": '•', "periodcentered": '·', "ellipsis": '…',
	"dagger": '†', "daggerdbl": '‡',
	"perthousand": '‰', "fraction": '⁄',
	"exclamdown": '¡', "questiondown": '¿',
	"cent": '¢', "sterling": '£', "currency": '¤',
	"yen": '¥', "florin": 'ƒ', "Euro": '€',
	"section": '§', "paragraph": '¶',
	"copyright": '©', "registered": '®', "trademark": '™',
	"degree": '°', "plusminus": '±', "multiply": '×',
	"divide": '÷', "logicalnot": '¬', "mu": 'µ',
	"onequarter": '¼', "onehalf": '½', "threequarters": '¾',
	"onesuperior": '¹', "twosuperior": '²', "threesuperior": '³',
	"ordfeminine": 'ª', "ordmasculine": 'º',
	"brokenbar": '¦', "dieresis": '¨', "acute": '´',
	"cedilla": '¸', "macron": '¯',
	"circumflex": 'ˆ', "caron": 'ˇ', "breve": '˘',
	"dotaccent": '˙', "ring": '˚', "ogonek": '˛',
	"tilde": '˜', "hungarumlaut": '˝',

	"fi": 'ﬁ', "fl": 'ﬂ', "ff": 'ﬀ',
	"ffi": 'ﬃ', "ffl": 'ﬄ',

	"AE": 'Æ', "ae": 'æ', "OE": 'Œ', "oe": 'œ',
	"Oslash": 'Ø', "oslash": 'ø',
	"Lslash": 'Ł', "lslash": 'ł',
	"Thorn": 'Þ', "thorn": 'þ', "Eth": 'Ð', "eth": 'ð',
	"germandbls": 'ß', "dotlessi": 'ı',

	"Aacute": 'Á', "aacute": 'á', "Agrave": 'À', "agrave": 'à',
	"Acircumflex": 'Â', "acircumflex": 'â', "Adieresis": 'Ä',
	"adieresis": 'ä', "Atilde": 'Ã', "atilde": 'ã',
	"Aring": 'Å', "aring": 'å',
	"Ccedilla": 'Ç', "ccedilla": 'ç',
	"Eacute": 'É', "eacute": 'é', "Egrave": 'È', "egrave": 'è',
	"Ecircumflex": 'Ê', "ecircumflex": 'ê', "Edieresis": 'Ë',
	"edieresis": 'ë',
	"Iacute":    'Í', "iacute": 'í', "Igrave": 'Ì', "igrave": 'ì',
	"Icircumflex": 'Î', "icircumflex": 'î', "Idieresis": 'Ï',
	"idieresis": 'ï',
	"Ntilde":    'Ñ', "ntilde": 'ñ',
	"Oacute": 'Ó', "oacute": 'ó', "Ograve": 'Ò', "ograve": 'ò',
	"Ocircumflex": 'Ô', "ocircumflex": 'ô', "Odieresis": 'Ö',
	"odieresis": 'ö', "Otilde": 'Õ', "otilde": 'õ',
	"Uacute": 'Ú', "uacute": 'ú', "Ugrave": 'Ù', "ugrave": 'ù',
	"Ucircumflex": 'Û', "ucircumflex": 'û', "Udieresis": 'Ü',
	"udieresis": 'ü',
	"Yacute":    'Ý', "yacute": 'ý', "ydieresis": 'ÿ',
	"Ydieresis": 'Ÿ',
	"Scaron":    'Š', "scaron": 'š', "Zcaron": 'Ž', "zcaron": 'ž',

	"nbspace": ' ', "softhyphen": '­',
	"apple": '', "notequal": '≠', "infinity": '∞',
	"lessequal": '≤', "greaterequal": '≥',
	"partialdiff": '∂', "summation": '∑', "product": '∏',
	"pi": 'π', "integral": '∫', "Omega": 'Ω', "Delta": 'Δ',
	"radical": '√', "approxequal": '≈', "lozenge": '◊',
	"arrowleft": '←', "arrowup": '↑', "arrowright": '→',
	"arrowdown": '↓',
}
