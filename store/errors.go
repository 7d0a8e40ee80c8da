// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var ErrPollNotFound = errors.New("poll not found")

// DuplicateKey identifies which uniqueness constraint a vote insert violated.
type DuplicateKey string

const (
	// KeyVoter is the per-browser dimension (poll_id, voter_hash).
	KeyVoter DuplicateKey = "voter"
	// KeyNetwork is the per-network dimension (poll_id, network_hash).
	KeyNetwork DuplicateKey = "network"
)

// DuplicateError reports that an InsertVote lost the uniqueness race: a vote
// for the same (poll, identity) pair already exists.
type DuplicateError struct {
	Key DuplicateKey
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate vote (%s key)", e.Key)
}

// classifyInsertError maps a driver error from a vote insert to a
// *DuplicateError when it is a uniqueness violation, or returns the error
// unchanged otherwise.
//
// Postgres reports the violated constraint by name through *pq.Error, which
// is the reliable path. modernc sqlite surfaces only the message
// "UNIQUE constraint failed: votes.<columns>" through database/sql, so there
// the column name in the text decides. When the dimension cannot be
// determined, the voter key is reported.
func classifyInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return err
		}
		if pqErr.Constraint == "uq_vote_poll_network" {
			return &DuplicateError{Key: KeyNetwork}
		}
		return &DuplicateError{Key: KeyVoter}
	}

	// "FOREIGN KEY constraint failed" and friends must pass through unchanged,
	// so only the UNIQUE message counts.
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	if strings.Contains(msg, "network_hash") {
		return &DuplicateError{Key: KeyNetwork}
	}
	return &DuplicateError{Key: KeyVoter}
}
