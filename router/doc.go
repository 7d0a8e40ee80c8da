// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the livepoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Polls:

	POST /polls       - Create poll with its options
	GET  /polls/{id}  - Poll with tally and viewer state

Voting:

	POST /polls/{id}/vote - Cast a vote

Realtime:

	GET /ws - Websocket channel (join_poll / leave_poll / poll_updated)

# Wiring

The router assembles the core once per process: the SQL store, the tally
aggregator, the fan-out hub (fed by the aggregator for join snapshots), and
the vote recorder (publishing accepted votes through the hub). Handlers
receive these plus the configuration.
*/
package router
