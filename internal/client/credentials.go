package client

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey int

const (
	credentialsKey contextKey = iota
	returnURLKey
)

// Credentials are attached to every outgoing request: a bearer token when
// one was stored at sign-in, and the caller's session cookies.
type Credentials struct {
	BearerToken string
	Cookies     []*http.Cookie
}

// WithCredentials returns a context whose requests carry creds.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey, creds)
}

// CredentialsFromContext returns the credentials attached to ctx, if any.
func CredentialsFromContext(ctx context.Context) Credentials {
	creds, _ := ctx.Value(credentialsKey).(Credentials)
	return creds
}

// WithReturnURL records the page the caller is on, used as the login
// referrer when a request comes back 401.
func WithReturnURL(ctx context.Context, u string) context.Context {
	return context.WithValue(ctx, returnURLKey, u)
}

// ReturnURLFromContext returns the URL recorded by WithReturnURL.
func ReturnURLFromContext(ctx context.Context) string {
	u, _ := ctx.Value(returnURLKey).(string)
	return u
}

// usableToken returns token unless it is a JWT whose exp claim has passed.
// Opaque tokens are passed through untouched; the server is the judge.
func usableToken(token string, now time.Time) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return token
	}
	if exp.Time.Before(now) {
		return ""
	}
	return token
}
