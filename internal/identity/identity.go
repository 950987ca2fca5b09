// Package identity provisions anonymous participant identifiers and signs
// them into tokens scoped to one session.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Prefix marks every generated participant identifier.
const Prefix = "anon_"

// MaxIDLength bounds participant identifiers accepted from clients.
const MaxIDLength = 64

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// session checks.
var ErrInvalidToken = errors.New("identity: invalid token")

// Claims is the token payload.
type Claims struct {
	Participant string `json:"pid"`
	Session     string `json:"sid"`
	jwt.RegisteredClaims
}

// Participant is a freshly provisioned identity.
type Participant struct {
	ID        string    `json:"participant"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issuer signs and verifies participant tokens with an HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A non-positive ttl means 30 days.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NewID returns a new anonymous participant identifier.
func NewID() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Issue provisions a participant for sessionID.
func (i *Issuer) Issue(sessionID string) (*Participant, error) {
	id := NewID()
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Participant: id,
		Session:     sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("identity: sign token: %w", err)
	}
	return &Participant{ID: id, Token: tok, ExpiresAt: exp}, nil
}

// Resolve verifies tok and returns the participant it names. The token must
// have been issued for sessionID.
func (i *Issuer) Resolve(tok, sessionID string) (string, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return "", ErrInvalidToken
	}
	if c.Session != sessionID {
		return "", fmt.Errorf("%w: issued for another session", ErrInvalidToken)
	}
	if c.Participant == "" {
		return "", fmt.Errorf("%w: missing participant", ErrInvalidToken)
	}
	return c.Participant, nil
}

// ValidID reports whether id is acceptable as a client-supplied participant
// identifier.
func ValidID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && len(id) <= MaxIDLength
}
