package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for account passwords.
const BcryptCost = 12

// HashPassword hashes an account password.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// HashCode hashes short-lived secrets such as OTP codes. They expire in
// minutes, so the minimum cost is used.
func HashCode(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
