package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"campusvote/internal/domain"
	"campusvote/pkg/errors"
	"campusvote/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVoting is a scriptable domain access layer.
type fakeVoting struct {
	mu        sync.Mutex
	positions []domain.Position
	voted     map[int]bool

	failPositions error
	failStatus    error
	failCast      error

	castCalls   int
	statusCalls int
}

func newFakeVoting() *fakeVoting {
	return &fakeVoting{
		positions: []domain.Position{
			{ID: 1, Name: "President", IsActive: true, Candidates: []domain.Candidate{{ID: 11, Name: "Alice"}, {ID: 12, Name: "Ben"}}},
			{ID: 2, Name: "Treasurer", IsActive: true, Candidates: []domain.Candidate{{ID: 21, Name: "Chau"}}},
		},
		voted: map[int]bool{},
	}
}

func (f *fakeVoting) GetPositions(ctx context.Context) ([]domain.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPositions != nil {
		return nil, f.failPositions
	}
	return f.positions, nil
}

func (f *fakeVoting) GetVotingStatus(ctx context.Context) (*domain.VotingStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.failStatus != nil {
		return nil, f.failStatus
	}
	status := &domain.VotingStatus{TotalPositions: len(f.positions)}
	for _, p := range f.positions {
		if f.voted[p.ID] {
			status.VotedCount++
		}
		status.VotingStatus = append(status.VotingStatus, domain.PositionStatus{
			PositionID:   p.ID,
			PositionName: p.Name,
			HasVoted:     f.voted[p.ID],
		})
	}
	return status, nil
}

func (f *fakeVoting) CastVote(ctx context.Context, positionID, candidateID int) (*domain.VoteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.castCalls++
	if f.failCast != nil {
		return nil, f.failCast
	}
	f.voted[positionID] = true
	return &domain.VoteResponse{
		Message: "Vote cast successfully",
		Vote:    domain.Vote{Candidate: candidateID, Position: positionID},
	}, nil
}

func (f *fakeVoting) GetCandidates(ctx context.Context, positionID int) ([]domain.Candidate, error) {
	return nil, nil
}

func (f *fakeVoting) GetMyVotes(ctx context.Context) ([]domain.Vote, error) {
	return nil, nil
}

func (f *fakeVoting) GetResults(ctx context.Context) (*domain.Results, error) {
	return nil, nil
}

func (f *fakeVoting) GetPositionResult(ctx context.Context, positionID int) (*domain.PositionResult, error) {
	return nil, nil
}

func (f *fakeVoting) GetStats(ctx context.Context) (*domain.Stats, error) {
	return nil, nil
}

func newTestWorkflow(votes *fakeVoting) *Workflow {
	// Zero delay disables the deferred reconcile; tests call it directly.
	return New(votes, 0, logger.NewNop())
}

func TestWorkflow_LoadVotingViewMergesPositionsAndStatus(t *testing.T) {
	votes := newFakeVoting()
	votes.voted[2] = true
	w := newTestWorkflow(votes)

	view, err := w.LoadVotingView(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Positions, 2)
	assert.False(t, view.Status[1])
	assert.True(t, view.Status[2])
	assert.False(t, view.AllVoted())
}

func TestWorkflow_LoadVotingViewAggregatesFailure(t *testing.T) {
	votes := newFakeVoting()
	votes.failStatus = errors.NewExternalError("election backend is unreachable", nil)
	w := newTestWorkflow(votes)

	_, err := w.LoadVotingView(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))

	// No partial view: the failed load left nothing behind.
	assert.Empty(t, w.View().Positions)
}

func TestWorkflow_SubmitVoteWithoutSelection(t *testing.T) {
	votes := newFakeVoting()
	w := newTestWorkflow(votes)

	_, err := w.SubmitVote(context.Background(), 1, 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, 0, votes.castCalls)
}

func TestWorkflow_OptimisticUpdateOnSuccess(t *testing.T) {
	votes := newFakeVoting()
	w := newTestWorkflow(votes)

	_, err := w.LoadVotingView(context.Background())
	require.NoError(t, err)

	w.SelectCandidate(1, 11)

	resp, err := w.SubmitSelected(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Vote cast successfully", resp.Message)

	// Visible immediately, before any reconciliation.
	assert.True(t, w.HasVoted(1))

	// The consumed selection is gone.
	_, selected := w.SelectedCandidate(1)
	assert.False(t, selected)
}

func TestWorkflow_NoOptimisticUpdateOnFailure(t *testing.T) {
	votes := newFakeVoting()
	votes.failCast = errors.NewBusinessError("You have already voted for this position.", nil)
	w := newTestWorkflow(votes)

	_, err := w.LoadVotingView(context.Background())
	require.NoError(t, err)

	w.SelectCandidate(1, 11)

	_, err = w.SubmitSelected(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeBusiness))

	// Status unchanged and the selection preserved for retry.
	assert.False(t, w.HasVoted(1))
	candidateID, selected := w.SelectedCandidate(1)
	require.True(t, selected)
	assert.Equal(t, 11, candidateID)
}

func TestWorkflow_ReconcileReplacesOptimisticState(t *testing.T) {
	votes := newFakeVoting()
	w := newTestWorkflow(votes)

	_, err := w.LoadVotingView(context.Background())
	require.NoError(t, err)

	_, err = w.SubmitVote(context.Background(), 1, 11)
	require.NoError(t, err)
	require.True(t, w.HasVoted(1))

	// Reconcile is idempotent; calling it repeatedly settles on the same
	// authoritative state.
	require.NoError(t, w.Reconcile(context.Background()))
	require.NoError(t, w.Reconcile(context.Background()))
	assert.True(t, w.HasVoted(1))
	assert.False(t, w.HasVoted(2))
}

func TestWorkflow_DeferredReconcileRuns(t *testing.T) {
	votes := newFakeVoting()
	w := New(votes, 10*time.Millisecond, logger.NewNop())

	_, err := w.LoadVotingView(context.Background())
	require.NoError(t, err)
	callsBefore := votes.statusCalls

	_, err = w.SubmitVote(context.Background(), 1, 11)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		votes.mu.Lock()
		defer votes.mu.Unlock()
		return votes.statusCalls > callsBefore
	}, time.Second, 5*time.Millisecond)
}

func TestVotingView_AllVoted(t *testing.T) {
	view := &VotingView{
		Positions: []domain.Position{{ID: 1}, {ID: 2}, {ID: 3}},
		Status:    map[int]bool{1: true, 2: true, 3: true},
	}
	assert.True(t, view.AllVoted())

	// Flipping any single entry makes it false.
	view.Status[2] = false
	assert.False(t, view.AllVoted())
}

func TestVotingView_AllVotedEmpty(t *testing.T) {
	view := &VotingView{Status: map[int]bool{}}
	assert.False(t, view.AllVoted())
}

func TestVotingView_AllVotedUnknownPosition(t *testing.T) {
	// A position missing from the status map counts as not voted.
	view := &VotingView{
		Positions: []domain.Position{{ID: 1}, {ID: 2}},
		Status:    map[int]bool{1: true},
	}
	assert.False(t, view.AllVoted())
}
