// Package payments finds payment references in chat text and resolves them
// to payment records.
package payments

import (
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`(?i)\b(PAY[A-Z0-9]{6,10})\b`)

// ExtractReference returns the first payment reference in text, upper-cased.
func ExtractReference(text string) (string, bool) {
	m := referencePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
