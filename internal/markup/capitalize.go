package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CapitalizeFirstWord upper-cases the first letter of the first word when
// that word is made only of lower-case letters and punctuation. Each
// hyphenated part is capitalized ("twenty-one" becomes "Twenty-One").
// Words with upper-case or uncased letters are left alone, as is any
// surrounding whitespace.
func CapitalizeFirstWord(s string) string {
	start := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) })
	if start < 0 {
		return s
	}
	end := strings.IndexFunc(s[start:], unicode.IsSpace)
	if end < 0 {
		end = len(s)
	} else {
		end += start
	}

	word := s[start:end]
	for _, r := range word {
		if !unicode.IsLower(r) && !unicode.IsPunct(r) {
			return s
		}
	}

	parts := strings.Split(word, "-")
	for i, part := range parts {
		r, size := utf8.DecodeRuneInString(part)
		if size == 0 {
			continue
		}
		parts[i] = string(unicode.ToUpper(r)) + part[size:]
	}
	return s[:start] + strings.Join(parts, "-") + s[end:]
}
