// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment variables.

# Configuration Sources

ParseFlags checks CLI flags first, then environment variables:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Required Settings

Secrets must be provided (flag or env):

  - COOKIE_SECRET (--cookie-secret): HMAC secret for the signed voter cookie
  - IP_HASH_SALT (--ip-salt): salt mixed into the network identity hash

# Optional Settings

  - PORT (-p): server port (default: 8080)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): connection string; defaults to a local sqlite file
    for sqlite, required for postgres
  - COOKIE_NAME: voter cookie name (default: livepoll_voter)
  - COOKIE_SECURE: set the Secure cookie attribute (default: false)
  - COOKIE_SAMESITE: Lax, Strict, or None (default: Lax)
  - FRONTEND_BASE_URL: base for share URLs (default: http://localhost:3000)

Secrets should come from the environment in production; the flags exist for
local development.
*/
package cliparse
