package models

import "time"

// Request types

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type VoteRequest struct {
	OptionID string `json:"optionId"`
}

// Domain types

type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"created_at"`
	Options   []Option  `json:"options"`
}

type Option struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote struct {
	ID          int64     `json:"id"`
	PollID      string    `json:"poll_id"`
	OptionID    string    `json:"option_id"`
	VoterHash   string    `json:"-"` // Never expose in JSON
	NetworkHash string    `json:"-"` // Never expose in JSON
	CreatedAt   time.Time `json:"created_at"`
}

// Option returns the poll's option with the given ID, or nil when the ID
// does not belong to this poll.
func (p Poll) Option(optionID string) *Option {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i]
		}
	}
	return nil
}

// Wire types (the shapes clients see, over HTTP and over the socket)

type OptionPayload struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type PollPayload struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	CreatedAt  string          `json:"createdAt"` // UTC ISO-8601, Z suffix
	TotalVotes int             `json:"totalVotes"`
	Options    []OptionPayload `json:"options"`
}

type Viewer struct {
	HasVoted      bool    `json:"hasVoted"`
	VotedOptionID *string `json:"votedOptionId"`
}

type PollResponse struct {
	Poll     PollPayload `json:"poll"`
	ShareURL string      `json:"shareUrl"`
	Viewer   Viewer      `json:"viewer"`
}

// Error response

type ErrorResponse struct {
	Error string `json:"error"`
}
