// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

// fakeConn records everything sent to it; fail makes every Send error
type fakeConn struct {
	mu     sync.Mutex
	events []string
	data   []any
	fail   bool
}

func (c *fakeConn) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("connection gone")
	}
	c.events = append(c.events, event)
	c.data = append(c.data, data)
	return nil
}

func (c *fakeConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

// fakeSnapshots serves canned snapshots per poll ID
type fakeSnapshots struct {
	mu    sync.Mutex
	polls map[string]models.PollPayload
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, pollID string) (models.PollPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.polls[pollID]
	if !ok {
		return models.PollPayload{}, store.ErrPollNotFound
	}
	return payload, nil
}

func newTestHub() (*Hub, *fakeSnapshots) {
	snaps := &fakeSnapshots{polls: map[string]models.PollPayload{
		"poll-1": {ID: "poll-1", TotalVotes: 2},
	}}
	return NewHub(snaps), snaps
}

func TestSubscribeSendsSnapshot(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{}

	hub.Subscribe(context.Background(), "poll-1", conn)

	events := conn.received()
	if len(events) != 1 || events[0] != EventPollUpdated {
		t.Fatalf("Expected immediate %s, got %v", EventPollUpdated, events)
	}
	payload, ok := conn.data[0].(models.PollPayload)
	if !ok || payload.TotalVotes != 2 {
		t.Errorf("Snapshot payload = %#v", conn.data[0])
	}
	if hub.Subscribers("poll-1") != 1 {
		t.Errorf("Subscribers = %d, want 1", hub.Subscribers("poll-1"))
	}
}

func TestSubscribeUnknownPoll(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{}

	hub.Subscribe(context.Background(), "no-such-poll", conn)

	events := conn.received()
	if len(events) != 1 || events[0] != EventError {
		t.Fatalf("Expected %s, got %v", EventError, events)
	}
	if hub.Subscribers("no-such-poll") != 0 {
		t.Error("Connection was registered for a missing poll")
	}
}

func TestPublishFansOut(t *testing.T) {
	hub, _ := newTestHub()
	a, b := &fakeConn{}, &fakeConn{}

	hub.Subscribe(context.Background(), "poll-1", a)
	hub.Subscribe(context.Background(), "poll-1", b)

	hub.Publish("poll-1", models.PollPayload{ID: "poll-1", TotalVotes: 3})

	for name, conn := range map[string]*fakeConn{"a": a, "b": b} {
		events := conn.received()
		// snapshot + broadcast
		if len(events) != 2 {
			t.Errorf("conn %s received %d events, want 2", name, len(events))
		}
	}
}

func TestPublishPrunesFailedConnections(t *testing.T) {
	hub, _ := newTestHub()
	healthy, dead := &fakeConn{}, &fakeConn{}

	hub.Subscribe(context.Background(), "poll-1", healthy)
	hub.Subscribe(context.Background(), "poll-1", dead)
	dead.fail = true

	hub.Publish("poll-1", models.PollPayload{ID: "poll-1", TotalVotes: 3})

	// The healthy connection still got its copy
	if events := healthy.received(); len(events) != 2 {
		t.Errorf("healthy conn received %d events, want 2", len(events))
	}
	// The dead one is lazily pruned
	if hub.Subscribers("poll-1") != 1 {
		t.Errorf("Subscribers = %d, want 1 after pruning", hub.Subscribers("poll-1"))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{}

	hub.Subscribe(context.Background(), "poll-1", conn)
	hub.Unsubscribe("poll-1", conn)

	hub.Publish("poll-1", models.PollPayload{ID: "poll-1", TotalVotes: 3})

	if events := conn.received(); len(events) != 1 {
		t.Errorf("Unsubscribed conn received %d events, want only the snapshot", len(events))
	}

	// Unsubscribing an absent connection is a no-op
	hub.Unsubscribe("poll-1", conn)
	hub.Unsubscribe("never-subscribed", conn)
}

func TestDropRemovesFromAllTopics(t *testing.T) {
	hub, snaps := newTestHub()
	snaps.polls["poll-2"] = models.PollPayload{ID: "poll-2"}
	conn := &fakeConn{}

	hub.Subscribe(context.Background(), "poll-1", conn)
	hub.Subscribe(context.Background(), "poll-2", conn)

	hub.Drop(conn)

	if hub.Subscribers("poll-1") != 0 || hub.Subscribers("poll-2") != 0 {
		t.Error("Drop() left the connection subscribed")
	}
}

func TestEmptyTopicIsCollected(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{}

	hub.Subscribe(context.Background(), "poll-1", conn)
	hub.Unsubscribe("poll-1", conn)

	hub.mu.Lock()
	_, exists := hub.topics["poll-1"]
	hub.mu.Unlock()
	if exists {
		t.Error("Empty topic was not garbage-collected")
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	hub, _ := newTestHub()

	var wg sync.WaitGroup
	conns := make([]*fakeConn, 20)
	for i := range conns {
		conns[i] = &fakeConn{}
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			hub.Subscribe(context.Background(), "poll-1", c)
		}(conns[i])
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Publish("poll-1", models.PollPayload{ID: "poll-1"})
		}()
	}

	wg.Wait()

	if hub.Subscribers("poll-1") != len(conns) {
		t.Errorf("Subscribers = %d, want %d", hub.Subscribers("poll-1"), len(conns))
	}
	// Every connection got its snapshot at minimum
	for i, c := range conns {
		if len(c.received()) == 0 {
			t.Errorf("conn %d received nothing", i)
		}
	}
}
