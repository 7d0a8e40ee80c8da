// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
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

type VotingHandler struct {
	recorder *vote.Recorder
	tallier  *vote.Tallier
	cfg      cliparse.Config
}

func NewVotingHandler(recorder *vote.Recorder, tallier *vote.Tallier, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{recorder: recorder, tallier: tallier, cfg: cfg}
}

// Vote handles POST /polls/{id}/vote
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	optionID := strings.TrimSpace(req.OptionID)
	if optionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "optionId is required.")
		return
	}

	id, err := identity.Resolve(r, h.cfg)
	if err != nil {
		slog.Error("failed to resolve identity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	result, err := h.recorder.Record(r.Context(), pollID, optionID, id.VoterHash, id.NetworkHash)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPollNotFound):
			middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found.")
		case errors.Is(err, vote.ErrInvalidOption):
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid option for this poll.")
		default:
			slog.Error("failed to record vote", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		}
		return
	}

	if id.IsNew {
		identity.SetVoterCookie(w, h.cfg, id.Token)
	}

	// Duplicates on either dimension are a 409, never a server error.
	if result.Duplicate() {
		middleware.ErrorResponse(w, http.StatusConflict, result.Message)
		return
	}

	payload, err := h.tallier.Snapshot(r.Context(), pollID)
	if err != nil {
		slog.Error("failed to load poll after vote", "error", err, "poll_id", pollID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("vote accepted", "poll_id", pollID, "option_id", optionID)

	middleware.JSONResponse(w, http.StatusCreated, pollResponse(payload, h.cfg, result.Vote))
}
