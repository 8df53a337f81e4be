package grading

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold trims s and reduces it to NFC case-folded form, so "Paris ", "paris"
// and "PARIS" compare equal.
func fold(s string) string {
	// A Caser carries state; one per call.
	c := cases.Fold()
	return norm.NFC.String(c.String(norm.NFC.String(strings.TrimSpace(s))))
}
