package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SplitName breaks a player name into forename and surname using whitespace
// token heuristics. A single token is a bare surname; three tokens drop the
// middle one (double surnames are listed forename + two surnames); more than
// three tokens is unparseable and yields empty parts, forcing a non-match.
func SplitName(full string) (forename, surname string) {
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return "", tokens[0]
	case 2:
		return strings.TrimRight(tokens[0], "."), tokens[1]
	case 3:
		return strings.TrimRight(tokens[0], "."), tokens[2]
	default:
		return "", ""
	}
}

var accentStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritics so surnames survive transliteration
// differences between data sources ("Meré" and "Mere" compare equal).
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}
