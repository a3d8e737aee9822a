package auth

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
)

const issuer = "eventhub"

// Principal is the authenticated caller carried through a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   domain.Role
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue signs an HS256 token for p and returns it with its expiry.
func (m *TokenManager) Issue(p Principal) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: p.Email,
		Role:  string(p.Role),
		StandardClaims: jwt.StandardClaims{
			Subject:   p.UserID.String(),
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: exp.Unix(),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

func (m *TokenManager) Parse(raw string) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Principal{}, errors.Mark(errors.Wrap(err, "parse token"), domain.ErrUnauthorized)
	}
	if c.Issuer != issuer {
		return Principal{}, errors.Wrap(domain.ErrUnauthorized, "unexpected issuer")
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, errors.Wrap(domain.ErrUnauthorized, "invalid subject")
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return Principal{}, errors.Wrap(domain.ErrUnauthorized, "invalid role")
	}
	return Principal{UserID: userID, Email: c.Email, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
