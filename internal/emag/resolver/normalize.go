package resolver

import (
	"strings"

	"golang.org/x/text/cases"
)

// normalizeName folds case and collapses whitespace so that cosmetic
// differences between the two accounts' copies of a listing do not count as
// data disagreement.
func normalizeName(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
