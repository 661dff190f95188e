package Services

import (
	"fmt"
	"strconv"
	"time"

	"Taskflow/Models"

	"github.com/golang-jwt/jwt/v4"
)

// Tokens issues and checks the HS256 session tokens. The user id travels
// in the Issuer claim.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	clock  Models.Clock
}

func NewTokens(secret string, ttl time.Duration, clock Models.Clock) *Tokens {
	if clock == nil {
		clock = Models.SystemClock{}
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (t *Tokens) Issue(user *Models.User) (string, time.Time, error) {
	now := t.clock.Now()
	expires := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatUint(uint64(user.ID), 10),
		Subject:   string(user.Role),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates raw and returns the user id it was issued for.
func (t *Tokens) Parse(raw string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	// Expiry is checked against the injected clock, not the wall clock.
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !claims.VerifyExpiresAt(t.clock.Now(), true) {
		return 0, Models.NewUnauthorized("invalid or expired token")
	}
	id, err := strconv.ParseUint(claims.Issuer, 10, 64)
	if err != nil || id == 0 {
		return 0, Models.NewUnauthorized("invalid token claims")
	}
	return uint(id), nil
}
