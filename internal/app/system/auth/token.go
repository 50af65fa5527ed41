package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TypeUser  = "user"
	TypeGuest = "guest"

	guestSubject = "guest"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is what a verified token says about the caller.
type Identity struct {
	Subject string // user hex id; "guest" for guest tokens
	Guest   bool
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(raw string) (Identity, error)
}

type claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens.
type Tokens struct {
	secret    []byte
	accessTTL time.Duration
	guestTTL  time.Duration
	now       func() time.Time
}

// NewTokens builds a token service. secret must be non-empty.
func NewTokens(secret string, accessTTL, guestTTL time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Tokens{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		guestTTL:  guestTTL,
		now:       time.Now,
	}, nil
}

// Issue signs a user token for userID.
func (t *Tokens) Issue(userID string) (string, time.Time, error) {
	return t.sign(userID, TypeUser, t.accessTTL)
}

// IssueGuest signs a guest token. Guests have no stored record.
func (t *Tokens) IssueGuest() (string, time.Time, error) {
	return t.sign(guestSubject, TypeGuest, t.guestTTL)
}

func (t *Tokens) sign(subject, typ string, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(ttl)
	c := claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry.
func (t *Tokens) Verify(raw string) (Identity, error) {
	keyFunc := func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || c.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{Subject: c.Subject, Guest: c.Type == TypeGuest}, nil
}
