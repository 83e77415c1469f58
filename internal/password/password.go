// Package password enforces the account password policy at the edge:
// at least eight characters, one letter, one digit, one symbol from
// the allowed set, no whitespace. The core stores whatever it is
// given; callers validate before registering.
package password

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"
)

// AllowedSymbols is the symbol set accepted by the policy.
const AllowedSymbols = "@#$%^&+="

const minLength = 8

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
)

// IsValid reports whether the password satisfies the full policy.
func IsValid(password string) bool {
	if len(password) < minLength {
		return false
	}

	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(AllowedSymbols, r):
			hasSymbol = true
		}
	}

	return hasLetter && hasDigit && hasSymbol
}

// ErrorMessage returns a human readable reason why the password fails
// the policy, or an empty string when it passes.
func ErrorMessage(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < minLength {
		return "password must be at least 8 characters"
	}

	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range password {
		if unicode.IsSpace(r) {
			return "password must not contain whitespace"
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if strings.ContainsRune(AllowedSymbols, r) {
			hasSymbol = true
		}
	}

	switch {
	case !hasLetter:
		return "password must contain at least one letter"
	case !hasDigit:
		return "password must contain at least one number"
	case !hasSymbol:
		return "password must contain at least one symbol (" + AllowedSymbols + ")"
	}

	return ""
}

// StrengthScore rates the password from 0 to 100.
func StrengthScore(password string) int {
	if password == "" {
		return 0
	}

	score := 0
	if len(password) >= minLength {
		score += 25
	}
	if len(password) >= 12 {
		score += 10
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsSpace(r):
			hasSymbol = true
		}
	}

	if hasUpper && hasLower {
		score += 25
	}
	if hasDigit {
		score += 20
	}
	if hasSymbol {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	return score
}

// StrengthLabel maps the score to a coarse description.
func StrengthLabel(password string) string {
	score := StrengthScore(password)
	switch {
	case score >= 80:
		return "Strong"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	case score >= 20:
		return "Weak"
	}
	return "Very Weak"
}

// Generate returns a random password that satisfies the policy.
func Generate() (string, error) {
	picks := []string{letters, digits, AllowedSymbols}
	all := letters + digits + AllowedSymbols

	var builder []byte
	for _, pool := range picks {
		c, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		builder = append(builder, c)
	}
	for len(builder) < minLength {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		builder = append(builder, c)
	}

	for i := len(builder) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		builder[i], builder[j.Int64()] = builder[j.Int64()], builder[i]
	}

	return string(builder), nil
}

// Match reports whether both values are non-empty and equal.
func Match(password, confirmation string) bool {
	return password != "" && password == confirmation
}

func randomChar(pool string) (byte, error) {
	index, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		return 0, err
	}
	return pool[index.Int64()], nil
}
