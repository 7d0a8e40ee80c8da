// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/identity"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/vote"
)

// Validation limits for poll creation.
const (
	maxQuestionLen = 500
	maxOptionLen   = 200
	minOptions     = 2
	maxOptions     = 10
)

type PollHandler struct {
	store   store.Store
	tallier *vote.Tallier
	cfg     cliparse.Config
}

func NewPollHandler(st store.Store, tallier *vote.Tallier, cfg cliparse.Config) *PollHandler {
	return &PollHandler{store: st, tallier: tallier, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	question, options, err := validatePollInput(req.Question, req.Options)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	poll, err := h.store.CreatePoll(r.Context(), question, options)
	if err != nil {
		slog.Error("failed to create poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	id, err := identity.Resolve(r, h.cfg)
	if err != nil {
		slog.Error("failed to resolve identity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", poll.ID, "options", len(poll.Options))

	if id.IsNew {
		identity.SetVoterCookie(w, h.cfg, id.Token)
	}
	// A fresh poll has no votes, so the viewer trivially has not voted.
	middleware.JSONResponse(w, http.StatusCreated,
		pollResponse(vote.BuildPayload(poll, nil), h.cfg, nil))
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	payload, err := h.tallier.Snapshot(r.Context(), pollID)
	if err == store.ErrPollNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found.")
		return
	}
	if err != nil {
		slog.Error("failed to load poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	id, err := identity.Resolve(r, h.cfg)
	if err != nil {
		slog.Error("failed to resolve identity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	viewerVote, err := h.store.FindVote(r.Context(), pollID, id.VoterHash, id.NetworkHash)
	if err != nil {
		slog.Error("failed to query viewer vote", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if id.IsNew {
		identity.SetVoterCookie(w, h.cfg, id.Token)
	}
	middleware.JSONResponse(w, http.StatusOK, pollResponse(payload, h.cfg, viewerVote))
}

// validatePollInput normalizes and validates poll creation input. Options
// are trimmed, empty entries dropped, and duplicates rejected
// case-insensitively.
func validatePollInput(question string, options []string) (string, []string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, errors.New("Question is required.")
	}
	if len(question) > maxQuestionLen {
		return "", nil, fmt.Errorf("Question is too long. Max %d characters.", maxQuestionLen)
	}

	clean := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			clean = append(clean, opt)
		}
	}

	if len(clean) < minOptions {
		return "", nil, fmt.Errorf("At least %d non-empty options are required.", minOptions)
	}
	if len(clean) > maxOptions {
		return "", nil, fmt.Errorf("At most %d options are allowed.", maxOptions)
	}

	seen := make(map[string]bool, len(clean))
	for _, opt := range clean {
		if len(opt) > maxOptionLen {
			return "", nil, fmt.Errorf("Each option must be at most %d characters.", maxOptionLen)
		}
		lower := strings.ToLower(opt)
		if seen[lower] {
			return "", nil, errors.New("Options must be unique.")
		}
		seen[lower] = true
	}

	return question, clean, nil
}

// pollResponse assembles the {poll, shareUrl, viewer} envelope.
func pollResponse(payload models.PollPayload, cfg cliparse.Config, viewerVote *models.Vote) models.PollResponse {
	viewer := models.Viewer{}
	if viewerVote != nil {
		viewer.HasVoted = true
		optionID := viewerVote.OptionID
		viewer.VotedOptionID = &optionID
	}

	return models.PollResponse{
		Poll:     payload,
		ShareURL: cfg.FrontendBaseURL + "/poll/" + payload.ID,
		Viewer:   viewer,
	}
}
