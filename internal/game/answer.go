package game

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldAnswer composes the text and applies full Unicode case folding.
// Whitespace and diacritics are kept as typed.
func foldAnswer(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

func sameName(expected, candidate string) bool {
	return foldAnswer(expected) == foldAnswer(candidate)
}
