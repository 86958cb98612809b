package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by a session token. Subject is the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the request-scoped caller identity for these claims.
func (c *Claims) Principal() Principal {
	return Principal{ID: c.Subject, Role: c.Role}
}

// JWTManager signs and verifies HS256 session tokens.
type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
	parser *jwt.Parser
}

func NewJWTManager(secret string, expiry time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (m *JWTManager) Generate(subject, role string) (string, error) {
	if subject == "" || role == "" {
		return "", fmt.Errorf("%w: empty subject or role", ErrInvalidToken)
	}

	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses and verifies a token, returning its claims. All failure
// modes collapse to ErrInvalidToken; the caller never learns whether the
// signature, expiry, or shape was at fault.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromHeader extracts the bearer token from an Authorization header.
func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return parts[1], nil
}
