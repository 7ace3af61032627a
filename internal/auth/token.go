package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "labvault"

// TokenKind is the credential class a token asserts. Access tokens identify
// the subject on ordinary requests; refresh tokens exist solely to mint new
// pairs. A token presented on the wrong channel is rejected.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims carried by every session token.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies session tokens using HS256. Access and
// refresh tokens are signed with independent secrets, so a token issued as
// one class can never validate as the other even if its token_type claim
// were forged.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the codec's time source (useful for tests).
func WithClock(fn func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec constructs a codec from the two class secrets. Both secrets
// are required: a blank secret fails construction rather than deferring the
// failure to first use.
func NewTokenCodec(accessSecret, refreshSecret string, opts ...CodecOption) (*TokenCodec, error) {
	accessSecret = strings.TrimSpace(accessSecret)
	refreshSecret = strings.TrimSpace(refreshSecret)
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrSecretMissing
	}
	c := &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *TokenCodec) secretFor(kind TokenKind) ([]byte, error) {
	switch kind {
	case TokenKindAccess:
		return c.accessSecret, nil
	case TokenKindRefresh:
		return c.refreshSecret, nil
	default:
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrInvalidInput, kind)
	}
}

// Sign issues a token binding the subject id and class for the given ttl.
func (c *TokenCodec) Sign(subjectID string, kind TokenKind, ttl time.Duration) (string, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be greater than zero", ErrInvalidInput)
	}
	secret, err := c.secretFor(kind)
	if err != nil {
		return "", err
	}

	now := c.now().UTC()
	claims := Claims{
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token under the secret of the given kind and returns its
// claims. Expiry is the only failure cause surfaced distinctly; every other
// problem collapses to ErrInvalidToken.
func (c *TokenCodec) Verify(token string, kind TokenKind) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	secret, err := c.secretFor(kind)
	if err != nil {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := c.validateClaims(claims, kind); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) validateClaims(claims *Claims, kind TokenKind) error {
	if claims.TokenType != string(kind) {
		return fmt.Errorf("unexpected token type: %s", claims.TokenType)
	}
	if claims.Issuer != issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := c.now().UTC()
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
