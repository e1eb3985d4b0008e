package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 30 * time.Minute

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

func hashPassword(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), passwordCost)
	return string(b), err
}

func comparePassword(hash, p string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(p)) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck spends the same bcrypt work as a real comparison so that
// an unknown name takes as long to reject as a wrong password.
func burnPasswordCheck(p string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = hashPassword("not-a-real-password")
	})
	_ = comparePassword(dummyHash, p)
}

type TokenErrorKind int

const (
	TokenMissing TokenErrorKind = iota + 1
	TokenMalformed
	TokenExpired
	TokenSignatureInvalid
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMissing:
		return "missing"
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	case TokenSignatureInvalid:
		return "signature invalid"
	default:
		return "unknown"
	}
}

// TokenError reports why a token failed verification. Callers facing the
// network must not echo the kind back to the client.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token " + e.Kind.String()
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

type tokenClaims struct {
	PublicID string `json:"public_id"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access tokens carrying a user's public id.
// The secret is fixed for the lifetime of the process.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenCodec{secret: secret, ttl: ttl}
}

// Issue returns a token for publicID that expires ttl after now.
func (c *TokenCodec) Issue(publicID string, now time.Time) (string, error) {
	claims := tokenClaims{
		PublicID: publicID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks the signature and expiry of tokenStr as of now and returns the
// public id it was issued for. A token whose exp is not after now is expired.
// Every failure is a *TokenError.
func (c *TokenCodec) Verify(tokenStr string, now time.Time) (string, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return "", &TokenError{Kind: TokenMissing}
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", classifyTokenError(err)
	}
	if claims.PublicID == "" {
		return "", &TokenError{Kind: TokenMalformed, Err: errors.New("public_id claim missing")}
	}
	return claims.PublicID, nil
}

func classifyTokenError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: TokenExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Kind: TokenSignatureInvalid, Err: err}
	default:
		return &TokenError{Kind: TokenMalformed, Err: err}
	}
}
