// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables for the configured dialect:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - polls: question and creation time
  - poll_options: options per poll, position fixed at creation
  - votes: one accepted vote per identity per poll

# Relationships

	polls 1──* poll_options
	polls 1──* votes
	poll_options 1──* votes (composite FK scoped to the poll)

All foreign keys use ON DELETE CASCADE. SQLite only enforces them with
foreign_keys enabled, so sqlite DSNs should carry _pragma=foreign_keys(1).

# Uniqueness Constraints

The votes table carries the two dedup invariants:

	uq_vote_poll_voter   UNIQUE (poll_id, voter_hash)
	uq_vote_poll_network UNIQUE (poll_id, network_hash)

These constraints, not any application lock, are what makes concurrent
vote acceptance safe. Constraint names are part of the store contract: the
store inspects them to tell the caller which identity dimension collided.
*/
package db
