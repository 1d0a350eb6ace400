// Package auth signs operators in to the admin dashboard and tracks their
// sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phbpx/haojia"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no active session")
)

// Session is proof that an operator is signed in.
type Session struct {
	ID         string    `json:"id"`
	OperatorID string    `json:"operator_id"`
	Email      string    `json:"email"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Revoker remembers sessions that were signed out before they expired.
type Revoker interface {
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	operators haojia.OperatorService
	revoked   Revoker
	secret    []byte
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

func New(cfg Config, operators haojia.OperatorService, revoked Revoker) *Authenticator {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Authenticator{
		operators: operators,
		revoked:   revoked,
		secret:    []byte(cfg.Secret),
		ttl:       ttl,
		issuer:    cfg.Issuer,
		now:       time.Now,
	}
}

// SignIn checks the operator's password and issues a session token.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (string, Session, error) {
	op, err := a.operators.QueryByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, haojia.ErrOperatorNotFound) {
			return "", Session{}, ErrInvalidCredentials
		}
		return "", Session{}, fmt.Errorf("query operator: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(op.PasswordHash, []byte(password)); err != nil {
		return "", Session{}, ErrInvalidCredentials
	}

	now := a.now()
	s := Session{
		ID:         uuid.NewString(),
		OperatorID: op.ID,
		Email:      op.Email,
		ExpiresAt:  now.Add(a.ttl).Truncate(time.Second),
	}

	c := claims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Issuer:    a.issuer,
			Subject:   s.OperatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}

	return token, s, nil
}

// Session returns the session behind token. Missing, malformed, expired and
// signed out tokens all yield ErrNoSession.
func (a *Authenticator) Session(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrNoSession
	}

	revoked, err := a.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, ErrNoSession
	}

	return Session{
		ID:         c.ID,
		OperatorID: c.Subject,
		Email:      c.Email,
		ExpiresAt:  c.ExpiresAt.Time,
	}, nil
}

// SignOut ends the session behind token. Signing out without a session is
// not an error.
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	s, err := a.Session(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}

	return a.revoked.Revoke(ctx, s.ID, s.ExpiresAt.Sub(a.now()))
}

// HashPassword returns the stored form of an operator password.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}
