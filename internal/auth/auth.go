// Package auth issues and verifies the signed tokens that carry a user's
// capabilities, and the short-lived nonces that protect admin forms.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Capabilities checked by the plugin.
const (
	ManageOptions   = "manage_options"
	ActivatePlugins = "activate_plugins"
	DeletePlugins   = "delete_plugins"
)

// CookieName is the cookie the admin token may be sent in.
const CookieName = "head_cleaner_auth"

const (
	issuer   = "head-cleaner"
	nonceAud = "nonce"
	nonceTTL = 12 * time.Hour
)

var (
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrNoSecret is returned by NewIssuer for an empty secret.
	ErrNoSecret = errors.New("auth: empty signing secret")
)

// Claims identify a user and what they may do.
type Claims struct {
	Capabilities []string `json:"caps,omitempty"`
	jwt.RegisteredClaims
}

// Can reports whether the claims grant capability. It is safe to call on nil.
func (c *Claims) Can(capability string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Capabilities, capability)
}

type nonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with an HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer returns an Issuer signing with secret. Tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// NewEphemeralIssuer returns an Issuer with a random secret. Its tokens do
// not survive a restart.
func NewEphemeralIssuer(ttl time.Duration) (*Issuer, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return &Issuer{secret: secret, ttl: ttl}, nil
}

// Issue returns a signed token for subject carrying caps.
func (i *Issuer) Issue(subject string, caps ...string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Capabilities: caps,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns its claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, i.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Nonce returns a token binding action to subject for a few hours.
func (i *Issuer) Nonce(action, subject string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, nonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{nonceAud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(nonceTTL)),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign nonce: %w", err)
	}
	return signed, nil
}

// VerifyNonce checks that raw was issued by Nonce for action and subject.
func (i *Issuer) VerifyNonce(raw, action, subject string) error {
	claims := &nonceClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, i.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(nonceAud),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Action != action {
		return fmt.Errorf("%w: nonce for %q, want %q", ErrInvalidToken, claims.Action, action)
	}
	return nil
}

func (i *Issuer) key(*jwt.Token) (any, error) {
	return i.secret, nil
}

type ctxKey struct{}

// WithUser returns ctx carrying claims.
func WithUser(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// UserFrom returns the claims in ctx. A request without a valid token gets
// nil, which has no capabilities.
func UserFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(ctxKey{}).(*Claims)
	return c
}

// Middleware attaches the caller's claims to the request context. The token
// is read from a Bearer Authorization header or the auth cookie. Requests
// without a valid token continue anonymously.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			if c, err := r.Cookie(CookieName); err == nil {
				raw = c.Value
			}
		}
		if raw != "" {
			if claims, err := i.Verify(raw); err == nil {
				r = r.WithContext(WithUser(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
