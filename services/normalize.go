package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// toUpper upper-cases with Spanish casing rules. A Caser keeps state, so
// one is built per call instead of being shared.
func toUpper(s string) string {
	return cases.Upper(language.Spanish).String(s)
}

// normalizeKey folds header names and measurement keys so that "Área",
// "ÁREA" and a decomposed "Área" compare equal.
func normalizeKey(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(toUpper(s)), " ")
}
