// Package auth issues and verifies the HS256 session tokens handed out by
// /register and /login, and carries verified claims through the request
// context.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// exp and iat carry milliseconds so a token issued mid-second does not
// expire before its full validity has passed.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// Claims is the acting identity decoded from a session token.
type Claims struct {
	Subject  int64
	Username string
	Role     string
}

// tokenClaims is the wire form: sub is the decimal identity id.
type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TokenService struct {
	keys     *Keyring
	validity time.Duration
	now      func() time.Time
}

type Option func(*TokenService)

// WithClock replaces time.Now for both issuing and verification.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(keys *Keyring, validity time.Duration, opts ...Option) *TokenService {
	s := &TokenService{keys: keys, validity: validity, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validity is how long issued tokens stay valid.
func (s *TokenService) Validity() time.Duration { return s.validity }

// Issue signs c with the current key. The token expires validity after now.
func (s *TokenService) Issue(c Claims) (string, error) {
	now := s.now()
	key := s.keys.Current()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(c.Subject, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Username: c.Username,
		Role:     c.Role,
	})
	token.Header["kid"] = key.ID

	return token.SignedString(key.Secret)
}

// Verify checks signature, algorithm, key id and expiry. Any failure is
// reported as common.ErrInvalidOrExpiredToken; a token is expired once
// now >= exp.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	tc := &tokenClaims{}
	token, err := parser.ParseWithClaims(tokenString, tc, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		secret, ok := s.keys.Lookup(kid)
		if !ok {
			return nil, errors.New("unknown key id")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, common.ErrInvalidOrExpiredToken
	}

	sub, err := strconv.ParseInt(tc.Subject, 10, 64)
	if err != nil {
		return Claims{}, common.ErrInvalidOrExpiredToken
	}

	return Claims{Subject: sub, Username: tc.Username, Role: tc.Role}, nil
}
