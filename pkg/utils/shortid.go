package utils

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// ShortIDLength is the fixed length of a dynamic QR code's public token.
const ShortIDLength = 8

var shortIDPattern = regexp.MustCompile(`^[a-f0-9]{8}$`)

// GenerateShortID returns an 8-character lowercase hex token for dynamic QR codes.
// Uniqueness is not checked here; the database unique index on short_id is the
// source of truth and callers regenerate on a duplicate-key error.
func GenerateShortID() string {
	b := make([]byte, ShortIDLength/2)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in serious trouble anyway
		panic(err)
	}
	return hex.EncodeToString(b)
}

// IsValidShortID reports whether s is exactly 8 lowercase hex characters.
// Callers must lowercase the input first.
func IsValidShortID(s string) bool {
	return shortIDPattern.MatchString(s)
}
