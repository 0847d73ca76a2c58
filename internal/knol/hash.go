package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins a card's subject and question after cleaning each part.
// It trims whitespace, lowercases, normalizes line endings and collapses runs
// of blanks so that cosmetic edits do not produce a different card.
func Normalize(subject, question string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.Join(strings.Fields(p), " ")
	}

	// A newline cannot survive normalisation, so it keeps the two parts apart.
	return normalizePart(subject) + "\n" + normalizePart(question)
}

// Hash returns the SHA-256 of the normalized subject and question as a hex string.
func Hash(subject, question string) string {
	hashBytes := sha256.Sum256([]byte(Normalize(subject, question)))
	return fmt.Sprintf("%x", hashBytes)
}
