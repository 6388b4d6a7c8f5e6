package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password an account may have.
	MinPasswordLength = 8

	// bcrypt ignores input past 72 bytes, so longer passwords are refused
	// rather than silently truncated.
	maxPasswordBytes = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("auth: password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	ErrInvalidPassword  = errors.New("auth: invalid password")
)

// PasswordService hashes and checks account passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService uses cost 12, roughly a quarter second per hash.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: 12}
}

// NewPasswordServiceForTest lets tests pick a cheap cost such as
// bcrypt.MinCost.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext, salt and cost included.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	switch {
	case len(plaintext) < MinPasswordLength:
		return "", ErrPasswordTooShort
	case len(plaintext) > maxPasswordBytes:
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports ErrInvalidPassword when plaintext does not match hash. An
// account with no password (GitHub-only) never verifies.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return ErrInvalidPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidPassword
	case err != nil:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
