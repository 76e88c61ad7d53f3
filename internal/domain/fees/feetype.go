package fees

import (
	"strings"
	"unicode"
)

// legacySynonyms pairs singular and plural fee labels recorded before fee
// lines carried a stable key. Both sides are lower-case.
var legacySynonyms = map[string]string{
	"tuition fee":     "tuition fees",
	"transport fee":   "transport fees",
	"exam fee":        "exam fees",
	"examination fee": "examination fees",
	"library fee":     "library fees",
	"admission fee":   "admission fees",
	"lab fee":         "lab fees",
	"sports fee":      "sports fees",
	"computer fee":    "computer fees",
	"development fee": "development fees",
	"hostel fee":      "hostel fees",
	"uniform fee":     "uniform fees",
	"book fee":        "books fee",
	"activity fee":    "activity fees",
}

// keyAliases maps the key of each legacy synonym onto the key of its pair,
// for pairs that differ by more than "fee"/"fees" ("books fee" -> "book-fee").
var keyAliases = func() map[string]string {
	aliases := make(map[string]string)
	for a, b := range legacySynonyms {
		if ka, kb := slugify(a), slugify(b); ka != kb {
			aliases[kb] = ka
		}
	}
	return aliases
}()

func slugify(title string) string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		if f == "fees" {
			fields[i] = "fee"
		}
	}
	return strings.Join(fields, "-")
}

func canonicalKey(key string) string {
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

// NormalizeKey derives the stable fee-type key for a display title:
// lower-case, non-alphanumerics collapsed to '-', "fees" folded to "fee",
// and legacy synonyms folded onto one key. "Tuition Fees" and "tuition fee"
// both become "tuition-fee"; "Books Fee" becomes "book-fee".
func NormalizeKey(title string) string {
	return canonicalKey(slugify(title))
}

// labelsMatch compares two display labels case-insensitively, accepting the
// legacy singular/plural pairs.
func labelsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return legacySynonyms[a] == b || legacySynonyms[b] == a
}

// Matches reports whether a payment recorded against (txKey, txLabel) belongs
// to the fee line (lineKey, lineTitle). Keys win when both sides have one;
// otherwise the legacy label comparison applies. Stored keys written before
// synonyms were folded are canonicalized here.
func Matches(lineKey, lineTitle, txKey, txLabel string) bool {
	if lineKey != "" && txKey != "" {
		return canonicalKey(lineKey) == canonicalKey(txKey)
	}
	return labelsMatch(lineTitle, txLabel)
}

// IsTuition reports whether a fee line is subject to concession.
func IsTuition(title string) bool {
	return strings.Contains(strings.ToLower(title), "tuition")
}
