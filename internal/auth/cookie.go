// Package auth implements the signed session cookie. The cookie value
// is payload.signature where payload is base64url JSON and signature
// is HMAC-SHA256 over the payload, so a forged but structurally valid
// payload is rejected at the gate rather than downstream.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CookieName is the single cookie the session gate reads.
const CookieName = "session"

type Session struct {
	UserID          string `json:"userId"`
	WeddingConfigID string `json:"weddingConfigId"`
	LastActivity    int64  `json:"lastActivity"`
}

var ErrInvalidSession = errors.New("invalid session")

// IssueCookieValue signs a session payload for transport in the cookie.
func IssueCookieValue(secret []byte, session Session) (string, error) {
	payloadBytes, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	return payload + "." + sign(secret, payload), nil
}

// ParseCookieValue verifies the signature and requires both the user
// and wedding-config identifiers to be present. Every failure mode is
// ErrInvalidSession; callers treat it as an absent cookie.
func ParseCookieValue(secret []byte, value string) (Session, error) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return Session{}, ErrInvalidSession
	}
	payload := parts[0]
	signature := parts[1]

	expected := sign(secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Session{}, ErrInvalidSession
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Session{}, ErrInvalidSession
	}

	var session Session
	if err := json.Unmarshal(decoded, &session); err != nil {
		return Session{}, ErrInvalidSession
	}
	if session.UserID == "" || session.WeddingConfigID == "" {
		return Session{}, ErrInvalidSession
	}
	return session, nil
}

// NewCookie builds the session cookie with the attributes the admin
// dashboard relies on: httpOnly, SameSite=Lax, 7-day lifetime.
func NewCookie(value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}
}

// ExpiredCookie clears the session cookie on signout.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(sum.Sum(nil))
}

// HashToken derives the registry key for a cookie value so raw cookie
// material is never stored server-side.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return fmt.Sprintf("%x", sum)
}
