package workflow

import (
	"context"
	"sync"
	"time"

	"campusvote/internal/domain"
	"campusvote/internal/service"
	"campusvote/pkg/errors"
	"campusvote/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// VotingView is the merged shape the voting surface renders from: the
// position list plus a per-position has-voted map. The two underlying reads
// are cached independently; no transactional guarantee ties their freshness
// together.
type VotingView struct {
	Positions []domain.Position
	Status    map[int]bool
}

// AllVoted reports whether every known position has been voted for. Purely
// derived from the status map, never stored.
func (v *VotingView) AllVoted() bool {
	if len(v.Positions) == 0 {
		return false
	}
	for _, p := range v.Positions {
		if !v.Status[p.ID] {
			return false
		}
	}
	return true
}

// Workflow orchestrates the voting surface: loading the combined view,
// submitting votes, and the optimistic update that follows a successful cast.
type Workflow struct {
	votes service.VotingAccess
	log   *logger.Logger

	mu         sync.Mutex
	positions  []domain.Position
	status     map[int]bool
	selections map[int]int

	// reconcileDelay is how long after a successful cast the authoritative
	// reload is scheduled. Zero disables scheduling; tests call Reconcile
	// synchronously instead.
	reconcileDelay time.Duration
}

// New creates a voting workflow.
func New(votes service.VotingAccess, reconcileDelay time.Duration, log *logger.Logger) *Workflow {
	return &Workflow{
		votes:          votes,
		log:            log,
		status:         make(map[int]bool),
		selections:     make(map[int]int),
		reconcileDelay: reconcileDelay,
	}
}

// LoadVotingView fetches positions and voting status concurrently, merges
// them, and replaces the workflow's in-memory state with the result. Either
// fetch may be served from cache independently. If one fails the caller gets
// a single aggregated failure, never a partial view.
func (w *Workflow) LoadVotingView(ctx context.Context) (*VotingView, error) {
	var (
		positions []domain.Position
		status    *domain.VotingStatus
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = w.votes.GetPositions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		status, err = w.votes.GetVotingStatus(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	voted := make(map[int]bool, len(status.VotingStatus))
	for _, ps := range status.VotingStatus {
		voted[ps.PositionID] = ps.HasVoted
	}

	w.mu.Lock()
	w.positions = positions
	w.status = voted
	w.mu.Unlock()

	return w.snapshot(), nil
}

// SelectCandidate records the user's current choice for a position.
func (w *Workflow) SelectCandidate(positionID, candidateID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selections[positionID] = candidateID
}

// SelectedCandidate returns the recorded choice for a position, if any.
func (w *Workflow) SelectedCandidate(positionID int) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.selections[positionID]
	return id, ok
}

// SubmitVote casts the vote for positionID with candidateID. A missing
// candidate is rejected locally before any network call. On a successful
// backend acknowledgment the position is optimistically marked voted, the
// stored selection is cleared, and a reconciling reload is scheduled. On
// failure nothing changes locally: no optimistic flag, selection preserved,
// error surfaced verbatim.
func (w *Workflow) SubmitVote(ctx context.Context, positionID, candidateID int) (*domain.VoteResponse, error) {
	if candidateID <= 0 {
		return nil, errors.NewValidationError("please select a candidate", map[string]interface{}{
			"position": positionID,
		})
	}

	resp, err := w.votes.CastVote(ctx, positionID, candidateID)
	if err != nil {
		return nil, err
	}

	w.applyOptimistic(positionID)
	w.scheduleReconcile()
	return resp, nil
}

// SubmitSelected casts the vote for positionID using the recorded selection.
func (w *Workflow) SubmitSelected(ctx context.Context, positionID int) (*domain.VoteResponse, error) {
	candidateID, _ := w.SelectedCandidate(positionID)
	return w.SubmitVote(ctx, positionID, candidateID)
}

// applyOptimistic marks the position voted ahead of the next authoritative
// fetch and drops the now-consumed selection. The flag can only go from
// false to true here; votes are not retractable.
func (w *Workflow) applyOptimistic(positionID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status[positionID] = true
	delete(w.selections, positionID)
	w.log.WithField("position_id", positionID).Debug("Optimistic vote status applied")
}

func (w *Workflow) scheduleReconcile() {
	if w.reconcileDelay <= 0 {
		return
	}
	time.AfterFunc(w.reconcileDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := w.Reconcile(ctx); err != nil {
			w.log.WithError(err).Warn("Deferred reconcile failed")
		}
	})
}

// Reconcile replaces optimistic state with the backend's authoritative view.
// Idempotent: safe to invoke repeatedly, or to skip entirely, since the vote
// caches were already invalidated when the cast succeeded.
func (w *Workflow) Reconcile(ctx context.Context) error {
	_, err := w.LoadVotingView(ctx)
	return err
}

// View returns a copy of the current in-memory view.
func (w *Workflow) View() *VotingView {
	return w.snapshot()
}

// HasVoted reports the current (possibly optimistic) flag for a position.
func (w *Workflow) HasVoted(positionID int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status[positionID]
}

// AllVoted reports whether every known position has been voted for.
func (w *Workflow) AllVoted() bool {
	return w.snapshot().AllVoted()
}

func (w *Workflow) snapshot() *VotingView {
	w.mu.Lock()
	defer w.mu.Unlock()
	positions := make([]domain.Position, len(w.positions))
	copy(positions, w.positions)
	status := make(map[int]bool, len(w.status))
	for id, voted := range w.status {
		status[id] = voted
	}
	return &VotingView{Positions: positions, Status: status}
}
