package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with the stored hash.
func VerifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// dummyHash is compared against when no account matches a login attempt, so
// the response time does not reveal whether an email exists.
var dummyHash = func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("labvault-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}()

// VerifyDummyPassword performs a bcrypt comparison that always fails. Login
// calls it when the email is unknown, keeping the cost of the unknown-user
// path identical to the wrong-password path.
func VerifyDummyPassword(password string) error {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
	return ErrUnauthorized
}
