package cache

import (
	"fmt"
	"time"
)

// Cache key constants
const (
	KeyPositions    = "positions"
	KeyCandidates   = "candidates:%s" // candidates:{positionID|all}
	KeyVotingStatus = "votingStatus"
	KeyMyVotes      = "myVotes"
	KeyResults      = "results"
	KeyResultByID   = "result:%d" // per-position result
	KeyStats        = "stats"
)

// TTL constants, tuned to how fast each resource actually changes.
const (
	// Positions and candidates are effectively immutable during an election.
	TTLPositions  = time.Minute
	TTLCandidates = time.Minute

	// Status and vote history change only when this user votes.
	TTLVotingStatus = 30 * time.Second
	TTLMyVotes      = 30 * time.Second

	// Aggregates move continuously as other users vote.
	TTLResults    = 15 * time.Second
	TTLResultByID = 15 * time.Second
	TTLStats      = 15 * time.Second
)

// CandidatesKey builds the candidates cache key for a position. Zero or a
// negative id addresses the unfiltered list.
func CandidatesKey(positionID int) string {
	if positionID <= 0 {
		return fmt.Sprintf(KeyCandidates, "all")
	}
	return fmt.Sprintf(KeyCandidates, fmt.Sprintf("%d", positionID))
}

// ResultKey builds the per-position results cache key.
func ResultKey(positionID int) string {
	return fmt.Sprintf(KeyResultByID, positionID)
}
