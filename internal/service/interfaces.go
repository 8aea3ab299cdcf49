package service

import (
	"context"

	"campusvote/internal/domain"
)

// VotingReader is the read side of the domain access layer, consumed by the
// voting workflow and the CLI.
type VotingReader interface {
	GetPositions(ctx context.Context) ([]domain.Position, error)
	GetCandidates(ctx context.Context, positionID int) ([]domain.Candidate, error)
	GetVotingStatus(ctx context.Context) (*domain.VotingStatus, error)
	GetMyVotes(ctx context.Context) ([]domain.Vote, error)
	GetResults(ctx context.Context) (*domain.Results, error)
	GetPositionResult(ctx context.Context, positionID int) (*domain.PositionResult, error)
	GetStats(ctx context.Context) (*domain.Stats, error)
}

// VoteCaster is the write side: one vote per open position.
type VoteCaster interface {
	CastVote(ctx context.Context, positionID, candidateID int) (*domain.VoteResponse, error)
}

// VotingAccess combines reads and the single write.
type VotingAccess interface {
	VotingReader
	VoteCaster
}

// InsightProvider serves the AI-generated narratives.
type InsightProvider interface {
	GetSummary(ctx context.Context) (*domain.AIInsight, error)
	GetPrediction(ctx context.Context) (*domain.AIInsight, error)
	GetTurnoutAnalysis(ctx context.Context) (*domain.AIInsight, error)
}
