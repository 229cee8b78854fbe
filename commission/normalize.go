package commission

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownName is the grouping key for a missing or blank name.
const UnknownName = "Unknown"

// NormalizeName canonicalizes an agency or agent name into a grouping key:
// trim, lower-case, split on whitespace and hyphens, title-case each token,
// join with single spaces. Blank input maps to UnknownName.
//
//	"abc   realty"  -> "Abc Realty"
//	"smith-jones"   -> "Smith Jones"
//
// Digits and punctuation other than hyphens are kept inside their token.
func NormalizeName(raw string) string {
	return normalize(strings.ToLower(raw))
}

// NormalizeSuburb is NormalizeName for suburbs. The input is upper-cased
// before title-casing, so abbreviations such as "ST" come out as "St".
func NormalizeSuburb(raw string) string {
	return normalize(strings.ToUpper(raw))
}

// NormalizeOptional handles a nullable column.
func NormalizeOptional(raw *string) string {
	if raw == nil {
		return UnknownName
	}
	return NormalizeName(*raw)
}

func normalize(s string) string {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	if len(tokens) == 0 {
		return UnknownName
	}
	// A Caser carries state, so each call gets its own.
	title := cases.Title(language.English)
	for i, tok := range tokens {
		tokens[i] = title.String(tok)
	}
	return strings.Join(tokens, " ")
}
