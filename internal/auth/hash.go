package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptyToken is returned by DecodeToken for an empty input.
var ErrEmptyToken = errors.New("auth: empty token")

// User is what the login redirect hands back in the URL fragment.
type User struct {
	// Token is still base64 encoded; see DecodeToken.
	Token    string
	CSRF     string
	FullName string
	Email    string
	Avatar   string

	// Extra keeps any other key the redirect sent.
	Extra map[string]string
}

// HasToken reports whether the redirect delivered a token.
func (u User) HasToken() bool {
	return u.Token != ""
}

// DisplayName is the greeting name, "Friend" when unknown.
func (u User) DisplayName() string {
	if u.FullName == "" || u.FullName == "NA" {
		return "Friend"
	}
	return u.FullName
}

// ParseHash parses a fragment of the form "#token=...&csrf=...". The leading
// '#' is optional. Values are percent-decoded and '+' is read as a space.
// Pairs without '=' are kept with an empty value; a malformed escape keeps
// the raw value.
func ParseHash(fragment string) User {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	var u User
	if fragment == "" {
		return u
	}

	for _, pair := range strings.Split(fragment, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = decodeComponent(key)
		value = decodeComponent(value)

		switch key {
		case "token":
			u.Token = value
		case "csrf":
			u.CSRF = value
		case "full_name":
			u.FullName = value
		case "email":
			u.Email = value
		case "avatar":
			u.Avatar = value
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]string)
			}
			u.Extra[key] = value
		}
	}
	return u
}

func decodeComponent(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

// DecodeToken turns the base64 encoded token from the fragment into the
// bearer token. Standard and URL-safe alphabets, padded or not, are accepted.
func DecodeToken(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", ErrEmptyToken
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	for _, enc := range encodings {
		if b, err := enc.DecodeString(encoded); err == nil && len(b) > 0 {
			return string(b), nil
		}
	}
	return "", fmt.Errorf("auth: token is not valid base64")
}

// EncodeToken is the inverse of DecodeToken; the mock provider uses it to
// build redirects.
func EncodeToken(token string) string {
	return base64.StdEncoding.EncodeToString([]byte(token))
}

// Fragment renders u back into a URL fragment (without the '#').
func (u User) Fragment() string {
	v := url.Values{}
	if u.Token != "" {
		v.Set("token", u.Token)
	}
	if u.CSRF != "" {
		v.Set("csrf", u.CSRF)
	}
	if u.FullName != "" {
		v.Set("full_name", u.FullName)
	}
	if u.Email != "" {
		v.Set("email", u.Email)
	}
	if u.Avatar != "" {
		v.Set("avatar", u.Avatar)
	}
	for k, val := range u.Extra {
		v.Set(k, val)
	}
	return v.Encode()
}
