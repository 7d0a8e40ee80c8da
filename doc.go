// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the livepoll API server.

livepoll is an anonymous polling service: anyone with the share link can
cast one vote, and every open viewer sees the tally update live.

# Starting the Server

The server reads configuration from a .env file, environment variables, or
CLI flags:

	COOKIE_SECRET=... IP_HASH_SALT=... go run main.go

Or with flags:

	go run main.go -p 8080 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - COOKIE_SECRET (--cookie-secret): HMAC secret for the signed voter cookie
  - IP_HASH_SALT (--ip-salt): salt for the network identity hash

Optional settings:

  - PORT (-p): server port (default: 8080)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): connection string (default: local sqlite file)
  - FRONTEND_BASE_URL: base for share URLs and websocket origin checks

# Architecture

The server uses a handler-based architecture with dependency injection:

  - store: poll store (polls, options, votes, uniqueness invariants)
  - identity: anonymous voter identity (signed cookie, dedup hashes)
  - vote: vote recorder state machine and tally aggregator
  - broadcast: fan-out of tally snapshots to subscribed viewers
  - ws: websocket endpoint for the realtime channel
  - handlers: HTTP request handlers (polls, voting)
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: request/response types
  - db: schema creation
  - cliparse: configuration parsing

Vote deduplication rests entirely on the database's unique constraints, so
any number of concurrent voters (or server instances sharing one database)
resolve to exactly one counted vote per identity per poll.

See package documentation for each component.
*/
package main
