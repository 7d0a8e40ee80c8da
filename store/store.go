// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/livepoll/models"
)

// Store is the poll store contract the rest of the service programs against.
// All implementations must be safe for concurrent use.
type Store interface {
	// CreatePoll atomically creates a poll and its options. Option order is
	// fixed at creation and equals the order of optionTexts.
	CreatePoll(ctx context.Context, question string, optionTexts []string) (models.Poll, error)

	// GetPoll returns a poll with its options in creation order.
	// Returns ErrPollNotFound if the poll does not exist.
	GetPoll(ctx context.Context, pollID string) (models.Poll, error)

	// FindVote returns the poll's vote matching either identity hash, or nil
	// when the identity has not voted.
	FindVote(ctx context.Context, pollID, voterHash, networkHash string) (*models.Vote, error)

	// InsertVote appends a vote. A uniqueness violation on either identity
	// dimension comes back as *DuplicateError reporting which key collided.
	InsertVote(ctx context.Context, pollID, optionID, voterHash, networkHash string) (models.Vote, error)

	// TallyVotes returns the poll's vote counts grouped by option ID.
	// Options with no votes are absent from the map.
	TallyVotes(ctx context.Context, pollID string) (map[string]int, error)
}

// SQLStore implements Store on database/sql. The votes table's named unique
// constraints are the serialization point for vote acceptance; no lock in
// this process participates, so multiple instances sharing one database
// stay correct.
type SQLStore struct {
	db *sql.DB
}

func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreatePoll(ctx context.Context, question string, optionTexts []string) (models.Poll, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	poll := models.Poll{
		ID:        uuid.NewString(),
		Question:  question,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO polls (id, question, created_at)
		VALUES ($1, $2, $3)
	`, poll.ID, poll.Question, poll.CreatedAt)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, text := range optionTexts {
		opt := models.Option{
			ID:        uuid.NewString(),
			PollID:    poll.ID,
			Text:      text,
			Position:  i,
			CreatedAt: poll.CreatedAt,
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO poll_options (id, poll_id, text, position, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, opt.ID, opt.PollID, opt.Text, opt.Position, opt.CreatedAt)
		if err != nil {
			return models.Poll{}, fmt.Errorf("failed to insert option: %w", err)
		}

		poll.Options = append(poll.Options, opt)
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to commit poll: %w", err)
	}

	return poll, nil
}

func (s *SQLStore) GetPoll(ctx context.Context, pollID string) (models.Poll, error) {
	var poll models.Poll
	err := s.db.QueryRowContext(ctx, `
		SELECT id, question, created_at FROM polls WHERE id = $1
	`, pollID).Scan(&poll.ID, &poll.Question, &poll.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Poll{}, ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, text, position, created_at
		FROM poll_options
		WHERE poll_id = $1
		ORDER BY position
	`, pollID)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position, &opt.CreatedAt); err != nil {
			return models.Poll{}, fmt.Errorf("failed to scan option: %w", err)
		}
		poll.Options = append(poll.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return models.Poll{}, fmt.Errorf("failed to read options: %w", err)
	}

	return poll, nil
}

func (s *SQLStore) FindVote(ctx context.Context, pollID, voterHash, networkHash string) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.QueryRowContext(ctx, `
		SELECT id, poll_id, option_id, voter_hash, network_hash, created_at
		FROM votes
		WHERE poll_id = $1 AND (voter_hash = $2 OR network_hash = $3)
		ORDER BY id
		LIMIT 1
	`, pollID, voterHash, networkHash).Scan(
		&vote.ID, &vote.PollID, &vote.OptionID,
		&vote.VoterHash, &vote.NetworkHash, &vote.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vote: %w", err)
	}

	return &vote, nil
}

func (s *SQLStore) InsertVote(ctx context.Context, pollID, optionID, voterHash, networkHash string) (models.Vote, error) {
	vote := models.Vote{
		PollID:      pollID,
		OptionID:    optionID,
		VoterHash:   voterHash,
		NetworkHash: networkHash,
		CreatedAt:   time.Now().UTC(),
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO votes (poll_id, option_id, voter_hash, network_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, pollID, optionID, voterHash, networkHash, vote.CreatedAt).Scan(&vote.ID)

	if err != nil {
		return models.Vote{}, classifyInsertError(err)
	}

	return vote, nil
}

func (s *SQLStore) TallyVotes(ctx context.Context, pollID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT option_id, COUNT(*)
		FROM votes
		WHERE poll_id = $1
		GROUP BY option_id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var optionID string
		var count int
		if err := rows.Scan(&optionID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tally row: %w", err)
		}
		counts[optionID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tally: %w", err)
	}

	return counts, nil
}
