package auth

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minAdminPasswordLength = 8
	maxAccessCodeLength    = 32
)

var accessCodePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// NormalizeAccessCode returns the canonical uppercase form of a candidate
// access code. Comparison is case-insensitive, so codes are uppercased before
// hashing and before verification.
func NormalizeAccessCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateAccessCode checks that a generated code has the expected shape.
func ValidateAccessCode(code string) error {
	code = NormalizeAccessCode(code)
	if code == "" {
		return fmt.Errorf("access code is required")
	}
	if len(code) > maxAccessCodeLength {
		return fmt.Errorf("access code too long")
	}
	if !accessCodePattern.MatchString(code) {
		return fmt.Errorf("invalid access code")
	}
	return nil
}

// HashAccessCode hashes one access code for persistent storage.
func HashAccessCode(code string) (string, error) {
	if err := ValidateAccessCode(code); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(NormalizeAccessCode(code)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyAccessCode verifies a candidate code against a stored hash. An empty
// stored hash means no code was configured and every candidate passes.
func VerifyAccessCode(codeHash, candidate string) bool {
	if strings.TrimSpace(codeHash) == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(NormalizeAccessCode(candidate))) == nil
}

// HashAdminPassword hashes the admin password for config storage.
func HashAdminPassword(password string) (string, error) {
	if len(password) < minAdminPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minAdminPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyAdminPassword verifies the admin password against its bcrypt hash.
// Unlike access codes, a missing hash denies everything.
func VerifyAdminPassword(passwordHash, candidate string) bool {
	if strings.TrimSpace(passwordHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}
