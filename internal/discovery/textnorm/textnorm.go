// Package textnorm turns free text into URL slugs and slugs back into
// display titles. The same slug form is used for matching query parameters
// against stored category and location labels.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// removeAccents strips combining marks so "Café" folds to "Cafe".
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// ToSlug lowercases text, folds accents, collapses every run of characters
// outside [a-z0-9] into a single hyphen and trims hyphens from both ends.
// ToSlug(ToSlug(x)) == ToSlug(x).
func ToSlug(text string) string {
	s := strings.ToLower(removeAccents(text))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ToTitle renders a slug for display: "wedding-cakes" becomes "Wedding Cakes".
func ToTitle(slug string) string {
	words := strings.Fields(strings.ReplaceAll(slug, "-", " "))
	// Caser is stateful; one per call keeps ToTitle safe for concurrent use.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
