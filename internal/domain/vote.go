package domain

import "time"

// VoteRequest is the transient vote submission: one candidate for one
// position. The backend assigns the vote its identity.
type VoteRequest struct {
	Candidate int `json:"candidate"`
	Position  int `json:"position"`
}

// Vote is a confirmed vote record from the user's history.
type Vote struct {
	ID            int       `json:"id"`
	Candidate     int       `json:"candidate"`
	Position      int       `json:"position"`
	Timestamp     time.Time `json:"timestamp"`
	UserNickname  string    `json:"user_nickname,omitempty"`
	CandidateName string    `json:"candidate_name,omitempty"`
	PositionName  string    `json:"position_name,omitempty"`
}

// VoteResponse acknowledges a successful cast.
type VoteResponse struct {
	Message string `json:"message"`
	Vote    Vote   `json:"vote"`
}

// PositionStatus is the per-position has-voted flag for the current user.
type PositionStatus struct {
	PositionID   int    `json:"position_id"`
	PositionName string `json:"position_name"`
	HasVoted     bool   `json:"has_voted"`
}

// VotingStatus reports which positions the user has voted for. Once a
// position's flag is true it never legitimately flips back within a session;
// votes are not retractable.
type VotingStatus struct {
	VotingStatus   []PositionStatus `json:"voting_status"`
	TotalPositions int              `json:"total_positions"`
	VotedCount     int              `json:"voted_count"`
}
