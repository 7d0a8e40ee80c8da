// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/url"

	"github.com/danielhkuo/livepoll/broadcast"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/vote"
	"github.com/danielhkuo/livepoll/ws"
)

func NewRouter(dbConn *sql.DB, cfg cliparse.Config) *http.ServeMux {
	// Wire the core: store -> tallier -> hub -> recorder
	st := store.New(dbConn)
	tallier := vote.NewTallier(st)
	hub := broadcast.NewHub(tallier)
	recorder := vote.NewRecorder(st, tallier, hub)

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(st, tallier, cfg)
	votingHandler := handlers.NewVotingHandler(recorder, tallier, cfg)
	wsHandler := ws.NewHandler(hub, originPatterns(cfg.FrontendBaseURL))

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Polls
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))

	// Voting
	mux.HandleFunc("POST /polls/{id}/vote", middleware.WithLogging(votingHandler.Vote))

	// Realtime channel
	mux.HandleFunc("GET /ws", wsHandler.Serve)

	// Root endpoint. {$} pins the pattern to "/" itself; a bare "GET /"
	// would be a subtree catch-all and swallow requests meant to 404 or 405.
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("livepoll API v1"))
	})

	return mux
}

// originPatterns allows websocket upgrades from the configured frontend.
func originPatterns(frontendBaseURL string) []string {
	u, err := url.Parse(frontendBaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
