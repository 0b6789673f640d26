package security

import (
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when a username is unknown so a failed login
// costs the same whether or not the account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("library-lending-placeholder"), bcrypt.DefaultCost)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnPasswordCheck performs a comparison that always fails.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
