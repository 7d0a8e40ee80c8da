// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store provides the poll store: polls, their options, and recorded
votes, with the uniqueness invariants that make vote deduplication safe.

# Contract

The Store interface exposes five operations:

	CreatePoll(ctx, question, optionTexts) - atomic poll + options creation
	GetPoll(ctx, pollID)                   - poll with ordered options
	FindVote(ctx, pollID, vHash, nHash)    - either-hash lookup, nil if none
	InsertVote(ctx, pollID, optionID, ...) - append, or *DuplicateError
	TallyVotes(ctx, pollID)                - counts grouped by option

# Deduplication

The database enforces at most one vote per (poll, voter_hash) and per
(poll, network_hash) through named unique constraints. InsertVote translates
a constraint violation into *DuplicateError with the violated key, so
callers can tell "this browser already voted" from "this network already
voted". On Postgres the constraint name comes from *pq.Error (structured);
on sqlite the driver only exposes the message text, which names the column.

Losing this race is a normal outcome under concurrency, not a failure.
*/
package store
