// Package filename turns user supplied upload names into object keys that are
// safe on disk and in the store, and checks them against an extension
// allow-list.
package filename

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

	deviceNames = map[string]struct{}{
		"CON": {}, "AUX": {}, "COM1": {}, "COM2": {}, "COM3": {}, "COM4": {},
		"LPT1": {}, "LPT2": {}, "LPT3": {}, "PRN": {}, "NUL": {},
	}

	asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

// Secure returns an ASCII-only version of name with path separators removed,
// whitespace runs collapsed to "_" and leading/trailing dots and underscores
// trimmed. The result may be empty.
//
//	Secure("My cool movie.mov")    == "My_cool_movie.mov"
//	Secure("../../../etc/passwd")  == "etc_passwd"
func Secure(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = ""
	}

	folded = strings.NewReplacer("/", " ", `\`, " ").Replace(folded)
	folded = strings.Join(strings.Fields(folded), "_")
	folded = unsafeChars.ReplaceAllString(folded, "")
	folded = strings.Trim(folded, "._")

	if folded != "" {
		base, _, _ := strings.Cut(folded, ".")
		if _, ok := deviceNames[strings.ToUpper(base)]; ok {
			folded = "_" + folded
		}
	}

	return folded
}

// Ext returns the lowercased suffix after the final dot, or "" when name has
// no dot.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Allowed reports whether name carries a dot and its extension is in allowed.
// Entries of allowed are expected lowercased and without a leading dot.
func Allowed(name string, allowed []string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	ext := Ext(name)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
