package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// windowsReservedNames are device names that cannot be used as a file
// stem on Windows.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

func isSeparator(ch rune) bool {
	return ch == ' ' || ch == '-' || ch == '_'
}

// ApplyExclusions removes every occurrence of each exclusion string from
// value. Matching is case-insensitive and treats space, hyphen and
// underscore as interchangeable, so excluding "-NR" also removes "_nr"
// and " NR".
func ApplyExclusions(value string, exclusions []string) string {
	for _, exclusion := range exclusions {
		if exclusion == "" {
			continue
		}
		value = removeAllFold(value, exclusion)
	}
	return value
}

func removeAllFold(haystack, needle string) string {
	hay := []rune(haystack)
	nd := []rune(needle)

	var out strings.Builder
	for i := 0; i < len(hay); {
		if matchFoldAt(hay, i, nd) {
			i += len(nd)
			continue
		}
		out.WriteRune(hay[i])
		i++
	}
	return out.String()
}

func matchFoldAt(hay []rune, at int, needle []rune) bool {
	if at+len(needle) > len(hay) {
		return false
	}
	for j, want := range needle {
		got := hay[at+j]
		if isSeparator(want) && isSeparator(got) {
			continue
		}
		if unicode.ToLower(got) != unicode.ToLower(want) {
			return false
		}
	}
	return true
}

// SanitizeStem normalizes a rendered stem into a safe filename stem:
// NFC form, space runs to a single underscore, forbidden and control
// characters to underscore, separator runs collapsed, leading/trailing
// separators trimmed. Running it on its own output is a no-op.
func SanitizeStem(value string) string {
	value = norm.NFC.String(value)

	var b strings.Builder
	b.Grow(len(value))
	inSpaces := false
	var prevSep rune
	for _, ch := range value {
		if ch == ' ' || ch == '\t' {
			inSpaces = true
			continue
		}
		if inSpaces {
			inSpaces = false
			if prevSep != '_' {
				b.WriteRune('_')
				prevSep = '_'
			}
		}
		if strings.ContainsRune(forbiddenChars, ch) || ch < 0x20 || ch == 0x7f {
			ch = '_'
		}
		if isSeparator(ch) {
			if prevSep == ch {
				continue
			}
			prevSep = ch
		} else {
			prevSep = 0
		}
		b.WriteRune(ch)
	}

	out := strings.Trim(b.String(), "_- .")

	if out == "" {
		return "untitled"
	}

	if isWindowsReserved(out) {
		out += "_file"
	}

	return out
}

func isWindowsReserved(stem string) bool {
	first, _, _ := strings.Cut(stem, ".")
	return windowsReservedNames[strings.ToUpper(first)]
}

// TruncateStem shortens stem so that stem+ext fits in maxLen runes. The
// extension is never cut; trailing stem content is preserved because the
// original-name suffix conventionally sits at the end.
func TruncateStem(stem, ext string, maxLen int) string {
	stemRunes := []rune(stem)
	extLen := len([]rune(ext))
	if len(stemRunes)+extLen <= maxLen {
		return stem
	}

	keep := maxLen - extLen
	if keep < 1 {
		keep = 1
	}
	if keep > len(stemRunes) {
		keep = len(stemRunes)
	}

	out := strings.TrimLeft(string(stemRunes[len(stemRunes)-keep:]), "_- .")
	if out == "" {
		return "untitled"
	}
	return out
}
