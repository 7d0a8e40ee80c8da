// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, options ([]string)
  - VoteRequest: optionId

# Domain Types

Internal data structures:

  - Poll: question plus its ordered options
  - Option: one selectable answer, position fixed at creation
  - Vote: one accepted (identity, option) association; the two identity
    hashes are never serialized

# Wire Types

The shapes clients see, shared by the HTTP handlers and the realtime
channel:

  - PollPayload: id, question, createdAt (UTC ISO-8601 with Z suffix),
    totalVotes, options in creation order with per-option counts
  - Viewer: hasVoted, votedOptionId for the resolved identity
  - PollResponse: {poll, shareUrl, viewer} envelope
  - ErrorResponse: {error}
*/
package models
