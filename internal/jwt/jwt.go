package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or not signed by us.
var ErrInvalidToken = errors.New("invalid session token")

// Claims carried by a session token.
type Claims struct {
	AccountNumber string `json:"account_number"`
	jwt.RegisteredClaims
}

// JWT issues and validates session tokens for authenticated accounts.
type JWT struct {
	SecretKey string        // Secret key for signing tokens
	Exp       time.Duration // Session lifetime
}

// Opt configures a JWT.
type Opt func(*JWT)

// WithSecretKey sets the signing key.
func WithSecretKey(secret string) Opt {
	return func(j *JWT) {
		j.SecretKey = secret
	}
}

// WithExpiration sets the session lifetime.
func WithExpiration(exp time.Duration) Opt {
	return func(j *JWT) {
		j.Exp = exp
	}
}

// New creates a new JWT instance with a five minute session by default.
func New(opts ...Opt) *JWT {
	j := &JWT{
		SecretKey: uuid.NewString(),
		Exp:       5 * time.Minute,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate creates a signed session token for accountNumber.
// Every token gets a fresh ID which is used as the session ID.
func (j *JWT) Generate(ctx context.Context, accountNumber string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountNumber: accountNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.Exp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.SecretKey))
}

// GetClaims parses the token and returns its claims if it is valid.
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(j.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountNumber == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Validate reports whether the token is valid.
func (j *JWT) Validate(ctx context.Context, tokenString string) error {
	_, err := j.GetClaims(ctx, tokenString)
	return err
}
