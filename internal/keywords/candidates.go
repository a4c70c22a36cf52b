package keywords

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize lowercases text and returns every run of two or more word
// characters (letters, digits, underscore).
func Tokenize(text string) []string {
	var tokens []string
	for _, field := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if utf8.RuneCountInString(field) >= 2 {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func isSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

// Candidates builds the unique minN..maxN grams of text after stop word
// removal, sorted alphabetically.
func Candidates(text string, minN, maxN int) []string {
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}

	var tokens []string
	for _, tok := range Tokenize(text) {
		if !IsStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}

	seen := make(map[string]struct{})
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			seen[strings.Join(tokens[i:i+n], " ")] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for gram := range seen {
		out = append(out, gram)
	}
	sort.Strings(out)
	return out
}
