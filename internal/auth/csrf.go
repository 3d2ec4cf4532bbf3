package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const csrfBytes = 16

// NewCSRFToken returns a random URL-safe nonce for one login round trip.
func NewCSRFToken() (string, error) {
	b := make([]byte, csrfBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generate csrf token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerifyCSRF compares the nonce we issued with the one that came back.
// Empty values never verify.
func VerifyCSRF(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// LoginURL builds the redirect to the login-start endpoint:
// <authStart>?csrf=<csrf>&url=<returnTo>. authStart may be relative.
func LoginURL(authStart, csrf, returnTo string) (string, error) {
	if strings.TrimSpace(authStart) == "" {
		return "", errors.New("auth: login start url is required")
	}
	if csrf == "" {
		return "", errors.New("auth: csrf token is required")
	}
	u, err := url.Parse(authStart)
	if err != nil {
		return "", fmt.Errorf("auth: parse login start url: %w", err)
	}
	q := u.Query()
	q.Set("csrf", csrf)
	q.Set("url", returnTo)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
