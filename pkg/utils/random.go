package utils

import (
	"math/rand/v2"
	"regexp"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{4,10}$`)

// GenerateShortCode generates a random alphanumeric string of fixed length
func GenerateShortCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}

// ValidCustomCode reports whether a user-chosen short code is acceptable.
func ValidCustomCode(code string) bool {
	return customCodePattern.MatchString(code)
}
