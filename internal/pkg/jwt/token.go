// Package jwt issues and verifies the signed, expiring session credentials
// carried as Bearer tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/piresc/dogwalker/internal/pkg/models"
)

// DefaultTTL is used when a credential is issued without an explicit lifetime
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrMalformed reports a token that cannot be parsed or lacks a subject
	ErrMalformed = errors.New("credential is malformed")
	// ErrInvalidSignature reports a token not signed with our secret and algorithm
	ErrInvalidSignature = errors.New("credential signature is invalid")
	// ErrExpired reports a well-signed token whose lifetime has elapsed
	ErrExpired = errors.New("credential has expired")
)

func init() {
	// exp and iat are encoded with millisecond resolution so short lifetimes
	// are honoured exactly
	jwt.TimePrecision = time.Millisecond
}

// Codec issues and verifies HS256 session credentials
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// Option customises a Codec
type Option func(*Codec)

// WithClock replaces the time source used for issuing and expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a codec from the JWT configuration
func NewCodec(cfg models.JWTConfig, opts ...Option) *Codec {
	ttl := cfg.Expiration
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Codec{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
		parser: &jwt.Parser{
			ValidMethods: []string{jwt.SigningMethodHS256.Alg()},
			// expiry is checked against the codec clock after the signature
			SkipClaimsValidation: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a credential for subjectID. A ttl <= 0 uses the configured default.
func (c *Codec) Issue(subjectID string, ttl time.Duration) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, fmt.Errorf("issue credential: %w", ErrMalformed)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign credential: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify returns the subject of a valid credential. The signature is checked
// before expiry, so a tampered expired token reports ErrInvalidSignature.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := c.parser.ParseWithClaims(tokenString, claims, c.keyFunc); err != nil {
		return "", classify(err)
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrMalformed
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return "", ErrExpired
	}
	return claims.Subject, nil
}

func (c *Codec) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.secret, nil
}

func classify(err error) error {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case vErr.Errors&jwt.ValidationErrorMalformed != 0:
		return ErrMalformed
	case vErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
