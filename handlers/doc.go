// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP endpoints.

# Handlers

  - PollHandler: POST /polls (create with validation), GET /polls/{id}
  - VotingHandler: POST /polls/{id}/vote

All poll-shaped responses use the {poll, shareUrl, viewer} envelope, where
viewer reflects whether the resolved identity already voted and for which
option.

# Validation

Poll creation rejects: empty question, question over 500 characters, fewer
than 2 or more than 10 non-empty options, options over 200 characters, and
case-insensitive duplicate options. All as 400 with {"error": message}.

# Status Codes

	201 - poll created / vote accepted
	400 - validation failure, missing or foreign optionId
	404 - poll not found
	409 - duplicate vote (browser or network dimension, message names which)

Duplicate votes never surface as 500s; losing the uniqueness race is a
correct outcome of the dedup protocol.

# Identity

Every handler resolves the voter identity; when a new token is minted the
signed cookie is set on the response before the body is written.
*/
package handlers
