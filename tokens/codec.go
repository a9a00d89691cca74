// Package tokens issues and validates the signed bearer tokens that carry a
// principal between requests. Tokens are self-contained and never stored.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/appshivam/restauth/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ClockSkewLeeway tolerates tokens stamped slightly in the future by a peer
	// with a fast clock. It applies to iat and nbf only, never to exp.
	ClockSkewLeeway = 30 * time.Second

	// MinKeyLength is the minimum HS256 signing key size in bytes
	MinKeyLength = 32

	// TimePrecision is the granularity of iat, nbf and exp
	TimePrecision = time.Millisecond

	signingAlgorithm = "HS256"
)

var (
	// ErrInvalidToken is returned for any token that must not authenticate a request
	ErrInvalidToken = errors.New("invalid token")

	// ErrKeyTooShort is returned when the signing key is shorter than MinKeyLength
	ErrKeyTooShort = errors.New("signing key too short")
)

func init() {
	// exp keeps sub-second precision so a token lives for its full TTL
	jwt.TimePrecision = TimePrecision
}

// Claims are the claims carried by an issued token
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// IssuedToken is a freshly signed token and its metadata
type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a single symmetric key
type Codec struct {
	key    []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

// NewCodec creates a codec. The key is copied and must be at least MinKeyLength bytes.
func NewCodec(key []byte, issuer string, ttl time.Duration) (*Codec, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrKeyTooShort, MinKeyLength, len(key))
	}
	ttl = ttl.Truncate(TimePrecision)
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	// Claims are checked by hand in Validate so that the skew leeway never
	// extends expiry. The parser still enforces the algorithm and signature.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithoutClaimsValidation(),
	)

	return &Codec{
		key:    append([]byte(nil), key...),
		issuer: issuer,
		ttl:    ttl,
		parser: parser,
	}, nil
}

// TTL returns the lifetime given to issued tokens
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for user valid from now until now+TTL
func (c *Codec) Issue(user *models.User, now time.Time) (*IssuedToken, error) {
	if user == nil || user.Email == "" {
		return nil, errors.New("cannot issue token without subject")
	}

	issuedAt := now.UTC().Truncate(TimePrecision)
	expiresAt := issuedAt.Add(c.ttl)
	tokenID := uuid.NewString()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.Email,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Roles: append([]string(nil), user.Roles...),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{
		Token:     signed,
		TokenID:   tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies tokenString and returns its claims as of now. Every
// failure wraps ErrInvalidToken.
func (c *Codec) Validate(tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := c.checkClaims(claims, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

func (c *Codec) checkClaims(claims *Claims, now time.Time) error {
	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: exp", jwt.ErrTokenRequiredClaimMissing)
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return jwt.ErrTokenExpired
	}

	latest := now.Add(ClockSkewLeeway)
	if claims.NotBefore != nil && claims.NotBefore.After(latest) {
		return jwt.ErrTokenNotValidYet
	}
	if claims.IssuedAt != nil && claims.IssuedAt.After(latest) {
		return jwt.ErrTokenUsedBeforeIssued
	}

	if claims.Issuer != c.issuer {
		return jwt.ErrTokenInvalidIssuer
	}
	if claims.Subject == "" {
		return fmt.Errorf("%w: sub", jwt.ErrTokenRequiredClaimMissing)
	}
	return nil
}
