package localization

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// keySuffixes are the naming-convention suffixes stripped before a raw
// key is formatted into a display name.
var keySuffixes = []string{"_NAME", "_DESC", "_SUBTITLE", "_SUB"}

// lowercaseWords stay lowercase in title case (conjunctions, articles,
// short prepositions), unless first or last.
var lowercaseWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "of": true, "in": true, "on": true, "at": true,
	"to": true, "for": true, "with": true, "by": true, "as": true,
	"from": true, "into": true, "onto": true, "upon": true,
	"nor": true, "so": true, "yet": true,
}

// newTitleCaser returns a fresh caser per call; cases.Caser carries
// internal state and must not be shared between goroutines.
func newTitleCaser() cases.Caser {
	return cases.Title(language.English)
}

// FormatKey deterministically renders a raw identifier as a
// human-readable string: naming-convention suffixes are stripped, the
// remainder is split on underscores and title-cased.
// e.g. "CASING_NAME" -> "Casing", "TECH_FRAGMENT_NAME" -> "Tech Fragment".
func FormatKey(key string) string {
	trimmed := key
	for _, suffix := range keySuffixes {
		if strings.HasSuffix(trimmed, suffix) && len(trimmed) > len(suffix) {
			trimmed = strings.TrimSuffix(trimmed, suffix)
			break
		}
	}
	caser := newTitleCaser()
	tokens := strings.Split(trimmed, "_")
	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		words = append(words, caser.String(strings.ToLower(token)))
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}

// TitleCase title-cases a name with conjunctions and articles kept
// lowercase. e.g. "CAKE OF GLASS" -> "Cake of Glass", not "Cake Of Glass".
// Words in single quotes get the letter inside the quotes capitalized.
func TitleCase(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	caser := newTitleCaser()
	words := strings.Fields(s)
	result := make([]string, len(words))
	for i, word := range words {
		lower := strings.ToLower(word)
		isFirst := i == 0
		isLast := i == len(words)-1
		if isFirst || isLast || !lowercaseWords[lower] {
			result[i] = capitalizeWord(caser, word)
		} else {
			result[i] = lower
		}
	}
	return strings.Join(result, " ")
}

func capitalizeWord(caser cases.Caser, word string) string {
	if len(word) >= 3 && strings.HasPrefix(word, "'") && strings.HasSuffix(word, "'") {
		inner := word[1 : len(word)-1]
		return "'" + caser.String(strings.ToLower(inner)) + "'"
	}
	return caser.String(strings.ToLower(word))
}
