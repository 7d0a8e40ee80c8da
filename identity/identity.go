// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/livepoll/cliparse"
)

const cookieMaxAge = 60 * 60 * 24 * 365 // 1 year

// Identity is the resolved voter identity for one request: the opaque
// browser token and the two derived dedup fingerprints.
type Identity struct {
	Token       string
	IsNew       bool
	VoterHash   string
	NetworkHash string
}

// Resolve derives the request's identity. A valid signed cookie reuses the
// existing token; anything else (absent, malformed, bad signature) mints a
// fresh one and reports IsNew so the caller can persist it back to the
// client. Resolve has no side effects of its own.
func Resolve(r *http.Request, cfg cliparse.Config) (Identity, error) {
	token, isNew := "", false

	if c, err := r.Cookie(cfg.CookieName); err == nil {
		token = VerifyToken(c.Value, cfg.CookieSecret)
	}
	if token == "" {
		minted, err := NewVoterToken()
		if err != nil {
			return Identity{}, err
		}
		token, isNew = minted, true
	}

	return Identity{
		Token:       token,
		IsNew:       isNew,
		VoterHash:   HashToken(token),
		NetworkHash: HashNetwork(ClientIP(r), cfg.IPHashSalt),
	}, nil
}

// NewVoterToken creates a random secure token for a voter (192 bits of
// entropy, URL-safe base64 without padding).
func NewVoterToken() (string, error) {
	b := make([]byte, 24)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// SignToken produces the cookie value: token + "." + HMAC-SHA256 signature.
// The cookie is tamper-evident, not confidential.
func SignToken(token, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(token))
	sig := strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
	return token + "." + sig
}

// VerifyToken extracts the token from a signed cookie value. Returns ""
// when the signature does not check out; verification failure is treated
// exactly like an absent cookie.
func VerifyToken(signed, secret string) string {
	token, _, found := strings.Cut(signed, ".")
	if !found || token == "" {
		return ""
	}
	if !hmac.Equal([]byte(SignToken(token, secret)), []byte(signed)) {
		return ""
	}
	return token
}

// HashToken derives the per-browser dedup fingerprint.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HashNetwork derives the per-network dedup fingerprint. The salt keeps the
// hash from being a rainbow-table lookup of the address.
func HashNetwork(ip, salt string) string {
	sum := sha256.Sum256([]byte(salt + ":" + ip))
	return hex.EncodeToString(sum[:])
}

// ClientIP extracts the client address.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For (load balancers) - take first IP in chain.
	// Proxies may pad entries with whitespace, so the first entry is
	// trimmed rather than cut at the first space.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr, stripping the port if present
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// SetVoterCookie persists a newly minted token back to the client as a
// signed, httponly cookie with a 1-year lifetime.
func SetVoterCookie(w http.ResponseWriter, cfg cliparse.Config, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    SignToken(token, cfg.CookieSecret),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		Expires:  time.Now().Add(cookieMaxAge * time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: sameSite(cfg.CookieSameSite),
	})
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
