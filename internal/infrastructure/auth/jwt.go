package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iho/bankledger/internal/domain"
)

const issuer = "bankledger"

// Claims represents the session token claims. The subject is the account id;
// AccountCreated pins the token to one incarnation of that account.
type Claims struct {
	AccountCreated string `json:"acct_created"`
	jwt.RegisteredClaims
}

// AccountID returns the authenticated account id.
func (c *Claims) AccountID() string {
	return c.Subject
}

// AccountCreatedAt returns the creation time of the account the token was
// issued for, at full precision.
func (c *Claims) AccountCreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, c.AccountCreated)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IssuedTime returns when the session was established.
func (c *Claims) IssuedTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// JWTManager issues and verifies session tokens so a login can be reused
// across separate CLI invocations.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	clock         func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		clock:         time.Now,
	}
}

// Generate issues a token for the account created at accountCreatedAt whose
// session began at issuedAt.
func (m *JWTManager) Generate(accountID string, accountCreatedAt, issuedAt time.Time) (string, error) {
	if accountID == "" {
		return "", errors.New("account id is required")
	}
	if accountCreatedAt.IsZero() {
		return "", errors.New("account creation time is required")
	}

	claims := Claims{
		AccountCreated: accountCreatedAt.UTC().Format(time.RFC3339Nano),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// Verify verifies a token and returns its claims.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.clock),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, domain.ErrInvalidToken
	}

	if _, err := time.Parse(time.RFC3339Nano, claims.AccountCreated); err != nil {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
