// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/identity"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

var dbSeq atomic.Int64

// SetupTestDB creates a fresh in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Named shared-cache memory DB so the database survives pool churn;
	// a single pooled connection serializes concurrent test writers the
	// same way sqlite's own locking would.
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		dbSeq.Add(1))

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn, "sqlite"); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            8080,
		DatabaseType:    "sqlite",
		CookieSecret:    "test-cookie-secret",
		IPHashSalt:      "test-ip-salt",
		CookieName:      "livepoll_voter",
		CookieSameSite:  "Lax",
		FrontendBaseURL: "http://localhost:3000",
	}
}

// CreateTestPoll creates a poll with the given options and returns it
func CreateTestPoll(t *testing.T, st store.Store, question string, options ...string) models.Poll {
	t.Helper()

	poll, err := st.CreatePoll(context.Background(), question, options)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	return poll
}

// CastTestVote inserts a vote directly through the store
func CastTestVote(t *testing.T, st store.Store, pollID, optionID, voterHash, networkHash string) models.Vote {
	t.Helper()

	vote, err := st.InsertVote(context.Background(), pollID, optionID, voterHash, networkHash)
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
	return vote
}

// TestIdentity returns deterministic dedup hashes for a named test voter
func TestIdentity(name string) (voterHash, networkHash string) {
	return identity.HashToken("token-" + name),
		identity.HashNetwork("10.0.0."+name, "test-ip-salt")
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
