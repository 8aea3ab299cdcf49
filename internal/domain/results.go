package domain

// CandidateResult is one candidate's tally within a position, ordered by
// votes on the backend side.
type CandidateResult struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Bio        string  `json:"bio,omitempty"`
	VoteCount  int     `json:"vote_count"`
	Percentage float64 `json:"percentage"`
}

// PositionResult is the tallied outcome for one position. Recomputed by the
// backend on every fetch; the client never mutates it.
type PositionResult struct {
	PositionID   int               `json:"position_id"`
	PositionName string            `json:"position_name"`
	TotalVotes   int               `json:"total_votes"`
	Candidates   []CandidateResult `json:"candidates"`
	Winner       *CandidateResult  `json:"winner,omitempty"`
}

// Results is the full election scoreboard.
type Results struct {
	Results    []PositionResult `json:"results"`
	TotalVotes int              `json:"total_votes,omitempty"`
}

// Stats carries the aggregate election analytics.
type Stats struct {
	TotalRegisteredUsers    int     `json:"total_registered_users"`
	TotalVoters             int     `json:"total_voters"`
	VoterTurnoutPercentage  float64 `json:"voter_turnout_percentage"`
	TotalVotesCast          int     `json:"total_votes_cast"`
	PositionsCount          int     `json:"positions_count"`
	CandidatesCount         int     `json:"candidates_count"`
	MostCompetitivePosition string  `json:"most_competitive_position,omitempty"`
}
