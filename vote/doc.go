// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package vote records votes and aggregates tallies.

# Recording

Recorder.Record runs the acceptance state machine for one attempt:

 1. Validate the poll exists and the option belongs to it.
 2. Pre-check for an existing vote on either identity dimension (an
    optimization, not a correctness mechanism).
 3. Append the vote; the store's unique constraints resolve races.
 4. On acceptance, recompute the tally and broadcast it before returning.

Exactly one of K concurrent attempts sharing a voter or network hash is
accepted; the rest come back as duplicates. A duplicate caught at insert
time is reported as StatusRaceDuplicate - same caller-visible meaning as
StatusDuplicate, logged at Info because losing the race is normal
operation, not an error.

# Tallies

Tallier.Snapshot produces the wire payload for a poll: every option in
creation order with its count (zero included) and the total. Broadcasts for
one poll are serialized per poll, so subscribers observe tallies in commit
order and counts never go backwards.
*/
package vote
