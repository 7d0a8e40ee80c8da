// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/danielhkuo/livepoll/broadcast"
	"github.com/danielhkuo/livepoll/models"
)

// Inbound event names.
const (
	eventJoinPoll  = "join_poll"
	eventLeavePoll = "leave_poll"
)

const writeTimeout = 5 * time.Second

type clientMessage struct {
	Event  string `json:"event"`
	PollID string `json:"pollId"`
}

type serverMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// conn adapts a websocket connection to broadcast.Conn. The mutex
// serializes writes from the read loop and from hub publishes; each write
// gets its own deadline so a stuck peer fails fast and gets pruned.
type conn struct {
	ws  *websocket.Conn
	ctx context.Context
	mu  sync.Mutex
}

func (c *conn) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.ws, serverMessage{Event: event, Data: data})
}

// Handler serves the realtime channel: viewers join and leave poll topics
// and receive poll_updated pushes whenever a vote is accepted.
type Handler struct {
	hub     *broadcast.Hub
	origins []string
}

// NewHandler creates the websocket handler. originPatterns is passed to the
// websocket accept check; empty means same-origin only.
func NewHandler(hub *broadcast.Hub, originPatterns []string) *Handler {
	return &Handler{hub: hub, origins: originPatterns}
}

// Serve handles GET /ws.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(h.origins) > 0 {
		opts.OriginPatterns = h.origins
	}

	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cn := &conn{ws: c, ctx: ctx}
	defer h.hub.Drop(cn)

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			_ = c.Close(websocket.StatusNormalClosure, "closed")
			return
		}

		switch msg.Event {
		case eventJoinPoll:
			if msg.PollID == "" {
				_ = cn.Send(broadcast.EventError, models.ErrorResponse{Error: "pollId is required."})
				continue
			}
			h.hub.Subscribe(ctx, msg.PollID, cn)
		case eventLeavePoll:
			if msg.PollID == "" {
				continue
			}
			h.hub.Unsubscribe(msg.PollID, cn)
		}
	}
}
