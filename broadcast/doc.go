// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast fans tally snapshots out to live viewers.

# Topics

Each poll is one topic. The Hub maps topics to subscriber sets, created on
first subscribe and garbage-collected when the last subscriber leaves.

# Lifecycle

  - Subscribe: register + send the current snapshot to the new connection,
    so a late joiner is never shown stale or absent state. Unknown poll:
    the connection gets a socket_error and is not registered.
  - Unsubscribe/Drop: remove from one topic / all topics. Effective
    immediately for subsequent publishes.
  - Publish: best-effort delivery to every current subscriber; a failed
    connection is pruned and the rest still get their copy.

The Hub is transport-agnostic: connections are anything implementing
Conn.Send. Package ws adapts websocket connections.
*/
package broadcast
