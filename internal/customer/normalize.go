package customer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a name for lookup and comparison: Unicode NFC, lowercase,
// and collapsed whitespace. Records are stored in original form; folding is
// only ever applied to lookup handles.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
