package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldDiacritics strips combining marks so "Café" becomes "Cafe".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Sanitize turns body plus an optional suffix into a name made only of
// [A-Za-z0-9 _.-], at most maxLen bytes long and never empty. The suffix is
// kept whole whenever maxLen leaves room for it.
func Sanitize(body, suffix string, maxLen int, useUnderscores bool) string {
	if maxLen <= 0 {
		maxLen = DefaultConfig().FilenameMaxLength
	}
	body = clean(body, useUnderscores)
	suffix = clean(suffix, useUnderscores)
	if body == "" {
		body = emptyName
	}
	if suffix == "" {
		return trimEdges(cut(body, maxLen), cut(emptyName, maxLen))
	}

	room := maxLen - len(suffix) - 1
	if room < 1 {
		return trimEdges(cut(suffix, maxLen), cut(emptyName, maxLen))
	}
	body = trimEdges(cut(body, room), cut(emptyName, room))
	return body + "_" + suffix
}

func clean(s string, useUnderscores bool) string {
	s = FoldDiacritics(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if useUnderscores {
				b.WriteByte('_')
			} else {
				b.WriteByte(' ')
			}
		case allowed(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := collapse(b.String(), '_')
	out = collapse(out, ' ')
	return strings.Trim(out, "_ .-")
}

func allowed(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == ' ' || r == '_' || r == '.' || r == '-'
}

func collapse(s string, c byte) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == c && i > 0 && s[i-1] == c {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// cut truncates an ASCII string to n bytes.
func cut(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func trimEdges(s, fallback string) string {
	s = strings.Trim(s, "_ .-")
	if s == "" {
		return fallback
	}
	return s
}
