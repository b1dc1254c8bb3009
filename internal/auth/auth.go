// Package auth turns bearer tokens from the identity provider into a caller id.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hackgods/telehealth-social/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "user_id"

var (
	ErrMissingToken = apperr.New(apperr.Unauthenticated, "missing bearer token")
	ErrInvalidToken = apperr.New(apperr.Unauthenticated, "invalid or expired token")
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator verifies HS256 tokens whose subject is the user UUID.
type Authenticator struct {
	secret  []byte
	issuer  string
	onError ErrorHandler
}

func NewAuthenticator(secret, issuer string, onError ErrorHandler) *Authenticator {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}
	}
	return &Authenticator{secret: []byte(secret), issuer: issuer, onError: onError}
}

// Verify parses a raw token and returns its subject.
func (a *Authenticator) Verify(raw string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.Unauthenticated, err, ErrInvalidToken.Message)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// bearer extracts the token from the Authorization header. ok is false
// when no credentials were sent at all.
func bearer(r *http.Request) (token string, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", true, ErrInvalidToken
	}
	return strings.TrimSpace(token), true, nil
}

// RequireUser rejects requests without a valid bearer token.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearer(r)
		if err == nil && !present {
			err = ErrMissingToken
		}
		if err != nil {
			a.onError(w, r, err)
			return
		}

		id, err := a.Verify(token)
		if err != nil {
			a.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// OptionalUser attaches the caller when a token is sent. Requests without
// credentials pass through anonymously; invalid credentials are rejected.
func (a *Authenticator) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearer(r)
		if err != nil {
			a.onError(w, r, err)
			return
		}
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		id, err := a.Verify(token)
		if err != nil {
			a.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated caller, if any.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// Issuer signs tokens. Used by tooling and tests; production tokens come
// from the identity provider.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

func (i *Issuer) Issue(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
