package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const resetPurpose = "password_reset"

var ErrResetTokenInvalid = errors.New("reset token is invalid or expired")

// MakeResetToken issues a signed, self-contained token proving ownership of
// an email address. Nothing is persisted server-side, the signature plus the
// embedded expiry make it verifiable on its own.
func MakeResetToken(email string, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     email,
		"purpose": resetPurpose,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	})

	return t.SignedString([]byte(viper.GetString("security.jwt_secret")))
}

// ParseResetToken verifies the signature and expiry of a token produced by
// MakeResetToken and returns the email it was issued for.
func ParseResetToken(token string) (string, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("security.jwt_secret")), nil
	})
	if err != nil || !t.Valid {
		return "", ErrResetTokenInvalid
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrResetTokenInvalid
	}

	if p, _ := claims["purpose"].(string); p != resetPurpose {
		return "", ErrResetTokenInvalid
	}

	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return "", ErrResetTokenInvalid
	}

	return email, nil
}
