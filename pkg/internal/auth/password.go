package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword 口令为空.
	ErrEmptyPassword = errors.New("auth: empty password")
	// ErrPasswordMismatch 口令与散列不匹配.
	ErrPasswordMismatch = errors.New("auth: password mismatch")
)

// HashPassword 使用 bcrypt 生成口令散列，cost 超出范围时使用默认值.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)

	return string(h), err
}

// CheckPassword 校验口令.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}

		return err
	}

	return nil
}
