package auth

import (
	"github.com/cockroachdb/errors"
	"github.com/robertarktes/eventhub/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.Wrap(domain.ErrInvalidInput, "empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

// CheckPassword returns domain.ErrUnauthorized on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return errors.Wrap(domain.ErrUnauthorized, "invalid credentials")
	}
	return nil
}
