// Package validate holds cheap shape checks for operator-supplied GitHub
// credentials. These are heuristics for early warnings, not authentication.
package validate

import (
	"encoding/hex"
	"strings"
)

const base62 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LengthBetween returns true if the length of s is within [min,max].
func LengthBetween(s string, min, max int) bool {
	n := len(s)
	return n >= min && n <= max
}

// IsAlphabet returns true if all characters in s are in the allowed set.
func IsAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// IsHex returns true if s is valid hex of even length. Classic GitHub
// personal access tokens were 40 hex characters.
func IsHex(s string) bool {
	if s == "" || len(s)%2 == 1 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// LooksLikeGitHubToken performs simple validation on a GitHub token
// candidate. Accepts ghp_, gho_, ghu_, ghs_, ghr_ followed by 36 base62
// chars.
func LooksLikeGitHubToken(s string) bool {
	prefixed := strings.HasPrefix(s, "ghp_") || strings.HasPrefix(s, "gho_") ||
		strings.HasPrefix(s, "ghu_") || strings.HasPrefix(s, "ghs_") ||
		strings.HasPrefix(s, "ghr_")
	if !prefixed {
		return false
	}
	tail := s[4:]
	if len(tail) != 36 {
		return false
	}
	return IsAlphabet(tail, base62)
}
