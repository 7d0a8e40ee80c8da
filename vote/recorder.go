// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

// ErrInvalidOption reports an option ID that does not belong to the poll.
var ErrInvalidOption = errors.New("option does not belong to this poll")

// Status is the outcome of a vote-recording attempt.
type Status string

const (
	// StatusAccepted: the vote was counted.
	StatusAccepted Status = "accepted"
	// StatusDuplicate: the identity already voted (caught by the pre-check).
	StatusDuplicate Status = "duplicate"
	// StatusRaceDuplicate: a concurrent vote won the uniqueness race between
	// the pre-check and the insert. Same meaning for the caller as
	// StatusDuplicate, kept distinct for observability.
	StatusRaceDuplicate Status = "race_duplicate"
)

// User-facing duplicate messages, one per dedup dimension.
const (
	MsgVoterDuplicate   = "This browser has already voted in this poll."
	MsgNetworkDuplicate = "A vote from this IP/network has already been recorded for this poll."
)

// Result is what a recording attempt produced. Message is set for the
// duplicate outcomes; Vote for the accepted one.
type Result struct {
	Status  Status
	Vote    *models.Vote
	Message string
}

// Duplicate reports whether the attempt was rejected as a duplicate,
// whichever path caught it.
func (r Result) Duplicate() bool {
	return r.Status == StatusDuplicate || r.Status == StatusRaceDuplicate
}

// Publisher delivers a tally snapshot to every viewer subscribed to the
// poll's topic.
type Publisher interface {
	Publish(pollID string, payload models.PollPayload)
}

// Recorder decides whether a vote is accepted, rejected as a duplicate, or
// rejected after losing a race. The store's uniqueness constraints are the
// single source of truth; the pre-check only saves pointless write attempts.
type Recorder struct {
	store   store.Store
	tallier *Tallier
	pub     Publisher

	// Serializes tally recompute + publish per poll so broadcasts go out in
	// commit order. Entries are one mutex per poll seen by this process.
	mu    sync.Mutex
	order map[string]*sync.Mutex
}

func NewRecorder(st store.Store, tallier *Tallier, pub Publisher) *Recorder {
	return &Recorder{
		store:   st,
		tallier: tallier,
		pub:     pub,
		order:   make(map[string]*sync.Mutex),
	}
}

// Record attempts to count a vote for (pollID, optionID) by the identity
// behind the two hashes.
//
// Returns store.ErrPollNotFound or ErrInvalidOption for bad targets. A
// duplicate on either identity dimension is a Result, not an error: it is a
// correct outcome of the dedup protocol. On acceptance the updated tally is
// broadcast to the poll's subscribers before Record returns.
func (r *Recorder) Record(ctx context.Context, pollID, optionID, voterHash, networkHash string) (Result, error) {
	poll, err := r.store.GetPoll(ctx, pollID)
	if err != nil {
		return Result{}, err
	}
	if poll.Option(optionID) == nil {
		return Result{}, ErrInvalidOption
	}

	// Fast path: skip the write when this identity clearly voted already.
	existing, err := r.store.FindVote(ctx, pollID, voterHash, networkHash)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		msg := MsgVoterDuplicate
		if existing.VoterHash != voterHash {
			msg = MsgNetworkDuplicate
		}
		return Result{Status: StatusDuplicate, Message: msg}, nil
	}

	vote, err := r.store.InsertVote(ctx, pollID, optionID, voterHash, networkHash)
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			// A concurrent voter won between pre-check and insert. Expected
			// under concurrency, so never logged as a failure.
			slog.Info("vote lost uniqueness race", "poll_id", pollID, "key", dup.Key)
			msg := MsgVoterDuplicate
			if dup.Key == store.KeyNetwork {
				msg = MsgNetworkDuplicate
			}
			return Result{Status: StatusRaceDuplicate, Message: msg}, nil
		}
		return Result{}, err
	}

	r.broadcast(ctx, pollID)

	return Result{Status: StatusAccepted, Vote: &vote}, nil
}

// broadcast recomputes the tally and publishes it under the poll's order
// lock, so subscribers see tallies in commit order. The vote is already
// committed when this runs; a snapshot failure only costs the push, which
// the next accepted vote repairs.
func (r *Recorder) broadcast(ctx context.Context, pollID string) {
	lock := r.pollLock(pollID)
	lock.Lock()
	defer lock.Unlock()

	payload, err := r.tallier.Snapshot(ctx, pollID)
	if err != nil {
		slog.Error("failed to recompute tally after vote", "error", err, "poll_id", pollID)
		return
	}
	r.pub.Publish(pollID, payload)
}

func (r *Recorder) pollLock(pollID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.order[pollID]
	if !ok {
		lock = &sync.Mutex{}
		r.order[pollID] = lock
	}
	return lock
}
