// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ws serves the realtime channel over websockets.

# Protocol

Clients send JSON messages:

	{"event": "join_poll", "pollId": "..."}
	{"event": "leave_poll", "pollId": "..."}

The server replies on join with the current tally snapshot, then emits

	{"event": "poll_updated", "data": {...pollPayload...}}

to all subscribers of a poll whenever a vote is accepted, and

	{"event": "socket_error", "data": {"error": "..."}}

for unknown polls or missing pollId.

# Connection Handling

Each write carries its own deadline, so one stuck viewer cannot hold up a
broadcast; a failed write gets the connection pruned from its topics on the
hub side. Closing the socket drops the connection from every topic.
*/
package ws
