package storage

import "golang.org/x/crypto/bcrypt"

// HashAccessCode creates a bcrypt hash of a channel access code.
//
// Precondition: code must be non-empty.
func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckAccessCode reports whether code matches hash.
func CheckAccessCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
