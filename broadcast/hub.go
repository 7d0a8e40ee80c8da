// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

// Event names on the realtime channel.
const (
	EventPollUpdated = "poll_updated"
	EventError       = "socket_error"
)

// Conn is one subscribed viewer connection. Send must be safe for
// concurrent use; a non-nil error marks the connection dead and gets it
// dropped from every topic it is in.
type Conn interface {
	Send(event string, data any) error
}

// Snapshotter supplies the current tally snapshot for a poll.
type Snapshotter interface {
	Snapshot(ctx context.Context, pollID string) (models.PollPayload, error)
}

// Hub maintains the topic -> subscriber-set mapping and delivers tally
// snapshots. One mutex mediates all subscribe/unsubscribe/publish mutations;
// delivery itself happens outside the lock so a slow connection never
// stalls bookkeeping.
type Hub struct {
	snapshots Snapshotter

	mu     sync.Mutex
	topics map[string]map[Conn]struct{}
}

func NewHub(snapshots Snapshotter) *Hub {
	return &Hub{
		snapshots: snapshots,
		topics:    make(map[string]map[Conn]struct{}),
	}
}

// Subscribe adds the connection to the poll's topic and immediately sends it
// the current tally snapshot, so a late joiner never starts from a stale or
// absent state. If the poll does not exist the connection gets a
// socket_error and is not registered.
//
// Registration and the snapshot read happen under the hub lock. Publishers
// snapshot the subscriber set under the same lock after their vote has
// committed, so a joiner either sees a committed vote in its snapshot or
// receives that vote's subsequent broadcast - never neither.
func (h *Hub) Subscribe(ctx context.Context, pollID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	payload, err := h.snapshots.Snapshot(ctx, pollID)
	if err != nil {
		if errors.Is(err, store.ErrPollNotFound) {
			_ = conn.Send(EventError, models.ErrorResponse{Error: "Poll not found."})
			return
		}
		slog.Error("failed to read snapshot for subscriber", "error", err, "poll_id", pollID)
		_ = conn.Send(EventError, models.ErrorResponse{Error: "Failed to load poll."})
		return
	}

	subs, ok := h.topics[pollID]
	if !ok {
		subs = make(map[Conn]struct{})
		h.topics[pollID] = subs
	}
	subs[conn] = struct{}{}

	if err := conn.Send(EventPollUpdated, payload); err != nil {
		h.removeLocked(pollID, conn)
	}
}

// Unsubscribe removes the connection from the topic. No-op if absent.
// Effective immediately for subsequent publishes; a publish already
// dispatched is not retracted.
func (h *Hub) Unsubscribe(pollID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(pollID, conn)
}

// Drop removes the connection from every topic. Called when a connection
// closes.
func (h *Hub) Drop(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for pollID := range h.topics {
		h.removeLocked(pollID, conn)
	}
}

// Publish delivers the snapshot to every current subscriber of the topic.
// Delivery is best-effort per connection: a failed connection is dropped
// and does not block delivery to the others.
func (h *Hub) Publish(pollID string, payload models.PollPayload) {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.topics[pollID]))
	for conn := range h.topics[pollID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	var failed []Conn
	for _, conn := range conns {
		if err := conn.Send(EventPollUpdated, payload); err != nil {
			failed = append(failed, conn)
		}
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			h.removeLocked(pollID, conn)
		}
		h.mu.Unlock()
	}
}

// Subscribers returns the topic's current subscriber count.
func (h *Hub) Subscribers(pollID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[pollID])
}

// removeLocked deletes the connection and garbage-collects the topic when
// its set empties. Caller holds h.mu.
func (h *Hub) removeLocked(pollID string, conn Conn) {
	subs, ok := h.topics[pollID]
	if !ok {
		return
	}
	delete(subs, conn)
	if len(subs) == 0 {
		delete(h.topics, pollID)
	}
}
