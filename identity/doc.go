// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity resolves a stable anonymous identity for each request.

# Resolution

Resolve produces the two dedup fingerprints for a request:

	id, err := identity.Resolve(r, cfg)
	// id.VoterHash   - sha256 of the per-browser token
	// id.NetworkHash - salted sha256 of the client address

A valid signed cookie reuses its token; an absent, malformed, or tampered
cookie is treated identically and a fresh random token (192 bits) is
minted with id.IsNew set. The caller persists new tokens with
SetVoterCookie.

# Cookie Signing

The cookie value is token + "." + base64url(HMAC-SHA256(secret, token)),
verified with a constant-time compare. The token is opaque and carries no
claims; the signature only makes it tamper-evident.

# Client Address

ClientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then the
peer address with the port stripped.
*/
package identity
