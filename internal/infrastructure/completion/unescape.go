package completion

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// UnescapeUnicode replaces literal \uXXXX sequences with the characters they encode.
//
// Surrogate pairs are combined. Escapes that would produce a JSON structural
// character (quote, backslash) or a control character below U+0020 are left as
// they are, as are escaped backslashes (\\u...) and lone surrogates, so the
// result is still valid JSON when the input was.
func UnescapeUnicode(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}

		// Escaped backslash: copy both bytes so the next character is not treated as an escape.
		if i+1 < len(s) && s[i+1] == '\\' {
			b.WriteString(`\\`)
			i += 2
			continue
		}

		r, ok := hexEscape(s[i:])
		if !ok || r < 0x20 || r == '"' || r == '\\' {
			b.WriteByte(c)
			i++
			continue
		}

		if utf16.IsSurrogate(r) {
			low, ok := hexEscape(s[i+6:])
			if !ok {
				b.WriteByte(c)
				i++
				continue
			}
			combined := utf16.DecodeRune(r, low)
			if combined == utf8.RuneError {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteRune(combined)
			i += 12
			continue
		}

		b.WriteRune(r)
		i += 6
	}

	return b.String()
}

// hexEscape parses a leading \uXXXX sequence.
func hexEscape(s string) (rune, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, false
	}
	for j := 2; j < 6; j++ {
		if !isHex(s[j]) {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(s[2:6], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
