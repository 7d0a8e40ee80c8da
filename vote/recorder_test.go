// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/testutil"
)

// publisherSpy records every published payload
type publisherSpy struct {
	mu       sync.Mutex
	payloads []models.PollPayload
}

func (p *publisherSpy) Publish(pollID string, payload models.PollPayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
}

func (p *publisherSpy) published() []models.PollPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.PollPayload(nil), p.payloads...)
}

func setupRecorder(t *testing.T) (*Recorder, *Tallier, store.Store, *publisherSpy) {
	t.Helper()
	st := store.New(testutil.SetupTestDB(t))
	tallier := NewTallier(st)
	pub := &publisherSpy{}
	return NewRecorder(st, tallier, pub), tallier, st, pub
}

func TestRecordAccepted(t *testing.T) {
	rec, _, st, pub := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Red or Blue?", "Red", "Blue")
	vHash, nHash := testutil.TestIdentity("1")

	result, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, vHash, nHash)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if result.Status != StatusAccepted {
		t.Fatalf("Record() status = %q, want accepted", result.Status)
	}
	if result.Vote == nil || result.Vote.OptionID != poll.Options[0].ID {
		t.Errorf("Record() vote = %#v", result.Vote)
	}

	// Acceptance triggered exactly one broadcast with the fresh tally
	published := pub.published()
	if len(published) != 1 {
		t.Fatalf("Expected 1 broadcast, got %d", len(published))
	}
	if published[0].TotalVotes != 1 {
		t.Errorf("Broadcast totalVotes = %d, want 1", published[0].TotalVotes)
	}
	if published[0].Options[0].Votes != 1 || published[0].Options[1].Votes != 0 {
		t.Errorf("Broadcast counts = %#v", published[0].Options)
	}
}

func TestRecordPollNotFound(t *testing.T) {
	rec, _, _, _ := setupRecorder(t)

	_, err := rec.Record(context.Background(), "no-such-poll", "opt", "v", "n")
	if !errors.Is(err, store.ErrPollNotFound) {
		t.Errorf("Record() error = %v, want ErrPollNotFound", err)
	}
}

func TestRecordOptionFromAnotherPoll(t *testing.T) {
	rec, _, st, pub := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B")
	other := testutil.CreateTestPoll(t, st, "Q2", "C", "D")
	vHash, nHash := testutil.TestIdentity("1")

	_, err := rec.Record(ctx, poll.ID, other.Options[0].ID, vHash, nHash)
	if !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Record() error = %v, want ErrInvalidOption", err)
	}
	if len(pub.published()) != 0 {
		t.Error("Rejected vote must not broadcast")
	}
}

func TestRecordDuplicateByToken(t *testing.T) {
	rec, _, st, pub := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B")
	vHash, nHash := testutil.TestIdentity("1")

	if _, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, vHash, nHash); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Same browser, different network: rejected on the voter dimension,
	// even when aimed at a different option
	_, otherNet := testutil.TestIdentity("2")
	result, err := rec.Record(ctx, poll.ID, poll.Options[1].ID, vHash, otherNet)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !result.Duplicate() {
		t.Fatalf("Record() status = %q, want a duplicate", result.Status)
	}
	if result.Message != MsgVoterDuplicate {
		t.Errorf("Record() message = %q, want voter message", result.Message)
	}

	// Only the accepted vote broadcast
	if len(pub.published()) != 1 {
		t.Errorf("Expected 1 broadcast, got %d", len(pub.published()))
	}
}

func TestRecordDuplicateByNetwork(t *testing.T) {
	rec, _, st, _ := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B")
	vHash, nHash := testutil.TestIdentity("1")
	otherVoter, _ := testutil.TestIdentity("2")

	if _, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, vHash, nHash); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Different browser, same network
	result, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, otherVoter, nHash)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !result.Duplicate() {
		t.Fatalf("Record() status = %q, want a duplicate", result.Status)
	}
	if result.Message != MsgNetworkDuplicate {
		t.Errorf("Record() message = %q, want network message", result.Message)
	}
}

func TestRecordIdempotent(t *testing.T) {
	rec, _, st, _ := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B")
	vHash, nHash := testutil.TestIdentity("1")

	if _, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, vHash, nHash); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Resubmitting the identical request is always a duplicate, never a
	// second accepted vote
	for i := 0; i < 3; i++ {
		result, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, vHash, nHash)
		if err != nil {
			t.Fatalf("Record() retry %d error = %v", i, err)
		}
		if !result.Duplicate() {
			t.Fatalf("Record() retry %d status = %q", i, result.Status)
		}
	}

	counts, err := st.TallyVotes(ctx, poll.ID)
	if err != nil {
		t.Fatalf("TallyVotes() error = %v", err)
	}
	if counts[poll.Options[0].ID] != 1 {
		t.Errorf("Tally = %d, want exactly 1", counts[poll.Options[0].ID])
	}
}

func TestRecordDistinctIdentitiesBothCount(t *testing.T) {
	rec, tallier, st, _ := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Red or Blue?", "Red", "Blue")
	blue := poll.Options[1].ID

	for _, name := range []string{"1", "2"} {
		vHash, nHash := testutil.TestIdentity(name)
		result, err := rec.Record(ctx, poll.ID, blue, vHash, nHash)
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if result.Status != StatusAccepted {
			t.Fatalf("Record() status = %q, want accepted", result.Status)
		}
	}

	payload, err := tallier.Snapshot(ctx, poll.ID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if payload.Options[0].Votes != 0 || payload.Options[1].Votes != 2 {
		t.Errorf("Tally = %#v, want Red:0 Blue:2", payload.Options)
	}
	if payload.TotalVotes != 2 {
		t.Errorf("totalVotes = %d, want 2", payload.TotalVotes)
	}
}

func TestRecordConcurrentSameIdentity(t *testing.T) {
	rec, _, st, pub := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B")
	vHash, nHash := testutil.TestIdentity("contested")

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]Result, attempts)
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = rec.Record(ctx, poll.ID, poll.Options[idx%2].ID, vHash, nHash)
		}(i)
	}
	wg.Wait()

	accepted, duplicates := 0, 0
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("Record() attempt %d error = %v", i, errs[i])
		}
		switch {
		case results[i].Status == StatusAccepted:
			accepted++
		case results[i].Duplicate():
			duplicates++
		}
	}

	// Exactly one of K concurrent attempts wins; the rest are duplicates
	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1", accepted)
	}
	if duplicates != attempts-1 {
		t.Errorf("duplicates = %d, want %d", duplicates, attempts-1)
	}

	counts, err := st.TallyVotes(ctx, poll.ID)
	if err != nil {
		t.Fatalf("TallyVotes() error = %v", err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != 1 {
		t.Errorf("Surviving votes = %d, want 1", total)
	}

	// One accepted vote means one broadcast
	if len(pub.published()) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(pub.published()))
	}
}

func TestBroadcastsInCommitOrder(t *testing.T) {
	rec, _, st, pub := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B")

	const votes = 5
	for i := 0; i < votes; i++ {
		vHash, nHash := testutil.TestIdentity(fmt.Sprintf("voter-%d", i))
		if _, err := rec.Record(ctx, poll.ID, poll.Options[0].ID, vHash, nHash); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	published := pub.published()
	if len(published) != votes {
		t.Fatalf("broadcasts = %d, want %d", len(published), votes)
	}
	for i, payload := range published {
		if payload.TotalVotes != i+1 {
			t.Errorf("broadcast %d totalVotes = %d, want %d", i, payload.TotalVotes, i+1)
		}
	}
}

func TestSnapshotShape(t *testing.T) {
	_, tallier, st, _ := setupRecorder(t)
	ctx := context.Background()

	poll := testutil.CreateTestPoll(t, st, "Q", "A", "B", "C")
	vHash, nHash := testutil.TestIdentity("1")
	testutil.CastTestVote(t, st, poll.ID, poll.Options[1].ID, vHash, nHash)

	payload, err := tallier.Snapshot(ctx, poll.ID)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// Every option appears in creation order, zero-vote options included
	if len(payload.Options) != 3 {
		t.Fatalf("Snapshot has %d options, want 3", len(payload.Options))
	}
	wantVotes := []int{0, 1, 0}
	for i, opt := range payload.Options {
		if opt.Text != poll.Options[i].Text {
			t.Errorf("Option %d text = %q, want %q", i, opt.Text, poll.Options[i].Text)
		}
		if opt.Votes != wantVotes[i] {
			t.Errorf("Option %d votes = %d, want %d", i, opt.Votes, wantVotes[i])
		}
	}
	if payload.TotalVotes != 1 {
		t.Errorf("totalVotes = %d, want 1", payload.TotalVotes)
	}
	if len(payload.CreatedAt) == 0 || payload.CreatedAt[len(payload.CreatedAt)-1] != 'Z' {
		t.Errorf("createdAt = %q, want UTC with Z suffix", payload.CreatedAt)
	}

	if _, err := tallier.Snapshot(ctx, "no-such-poll"); !errors.Is(err, store.ErrPollNotFound) {
		t.Errorf("Snapshot() error = %v, want ErrPollNotFound", err)
	}
}
