package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims holds the JWT token payload. JSON tags match the middleware's
// jwtClaims so tokens issued here are parsed there.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"` // "access", "refresh" or "state"
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeState   = "state"

	issuer = "okrs"
)

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueAccessToken creates a signed JWT access token.
func IssueAccessToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	return issueToken(secret, userID, role, tokenTypeAccess, ttl)
}

// IssueRefreshToken creates a signed JWT refresh token.
func IssueRefreshToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	return issueToken(secret, userID, role, tokenTypeRefresh, ttl)
}

func issueToken(secret string, userID uuid.UUID, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
		UserID:    userID.String(),
		Role:      role,
		TokenType: tokenType,
	}

	return sign(secret, claims)
}

// IssueStateToken creates the OAuth state parameter for provider. It is a
// short-lived signed token, so callbacks can be verified without
// server-side storage.
func IssueStateToken(secret, provider string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   provider,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
		TokenType: tokenTypeState,
	}

	return sign(secret, claims)
}

// VerifyStateToken checks that state was issued for provider and has not
// expired.
func VerifyStateToken(secret, state, provider string) error {
	claims, err := ValidateToken(secret, state)
	if err != nil {
		return err
	}
	if claims.TokenType != tokenTypeState || claims.Subject != provider {
		return fmt.Errorf("auth.VerifyStateToken: %w", ErrInvalidToken)
	}
	return nil
}

func sign(secret string, claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.sign: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}
