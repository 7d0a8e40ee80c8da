// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"time"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

// Tallier computes tally snapshots for a poll: per-option counts in option
// creation order (zero-vote options included) plus the total. Pure read.
type Tallier struct {
	store store.Store
}

func NewTallier(st store.Store) *Tallier {
	return &Tallier{store: st}
}

// Snapshot returns the poll's current tally as the wire payload.
// Returns store.ErrPollNotFound if the poll does not exist.
func (t *Tallier) Snapshot(ctx context.Context, pollID string) (models.PollPayload, error) {
	poll, err := t.store.GetPoll(ctx, pollID)
	if err != nil {
		return models.PollPayload{}, err
	}

	counts, err := t.store.TallyVotes(ctx, pollID)
	if err != nil {
		return models.PollPayload{}, err
	}

	return BuildPayload(poll, counts), nil
}

// BuildPayload assembles the wire payload from a poll and its counts.
func BuildPayload(poll models.Poll, counts map[string]int) models.PollPayload {
	payload := models.PollPayload{
		ID:        poll.ID,
		Question:  poll.Question,
		CreatedAt: poll.CreatedAt.UTC().Format(time.RFC3339),
		Options:   make([]models.OptionPayload, 0, len(poll.Options)),
	}

	for _, opt := range poll.Options {
		votes := counts[opt.ID]
		payload.Options = append(payload.Options, models.OptionPayload{
			ID:    opt.ID,
			Text:  opt.Text,
			Votes: votes,
		})
		payload.TotalVotes += votes
	}

	return payload
}
