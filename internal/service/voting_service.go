package service

import (
	"context"
	"fmt"
	"time"

	"campusvote/internal/domain"
	"campusvote/internal/transport"
	"campusvote/pkg/cache"
	"campusvote/pkg/errors"
	"campusvote/pkg/metrics"

	"go.uber.org/zap"
)

// VotingService is the domain access layer for election resources. Every
// read follows the same protocol: compute the resource's cache key, serve a
// fresh cached value without a network call, otherwise fetch through the
// transport and store the result with the resource's designated TTL.
type VotingService struct {
	api   *transport.Client
	cache *cache.Cache
	log   *zap.Logger
}

// NewVotingService creates the domain access layer over an injected cache
// instance. The cache is owned here, never reached via package state.
func NewVotingService(api *transport.Client, c *cache.Cache, log *zap.Logger) *VotingService {
	return &VotingService{
		api:   api,
		cache: c,
		log:   log,
	}
}

var _ VotingAccess = (*VotingService)(nil)

// cachedValue reads a typed value from the cache. A stored value of the
// wrong type counts as a miss.
func cachedValue[T any](c *cache.Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// readThrough runs the shared read protocol for one resource.
func readThrough[T any](ctx context.Context, s *VotingService, key, resource, path string, ttl time.Duration) (T, error) {
	if v, ok := cachedValue[T](s.cache, key); ok {
		metrics.ObserveCacheHit(resource)
		s.log.Debug("Cache hit", zap.String("resource", resource))
		return v, nil
	}
	metrics.ObserveCacheMiss(resource)
	s.log.Debug("Cache miss", zap.String("resource", resource))

	var out T
	if err := s.api.Get(ctx, path, &out); err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, out, ttl)
	return out, nil
}

// GetPositions returns the active positions with their candidates.
func (s *VotingService) GetPositions(ctx context.Context) ([]domain.Position, error) {
	return readThrough[[]domain.Position](ctx, s, cache.KeyPositions, "positions", "/positions/", cache.TTLPositions)
}

// GetCandidates returns candidates, optionally filtered by position. A
// non-positive positionID returns the unfiltered list.
func (s *VotingService) GetCandidates(ctx context.Context, positionID int) ([]domain.Candidate, error) {
	path := "/candidates/"
	if positionID > 0 {
		path = fmt.Sprintf("/candidates/?position=%d", positionID)
	}
	return readThrough[[]domain.Candidate](ctx, s, cache.CandidatesKey(positionID), "candidates", path, cache.TTLCandidates)
}

// GetVotingStatus returns the per-position has-voted flags for the current user.
func (s *VotingService) GetVotingStatus(ctx context.Context) (*domain.VotingStatus, error) {
	return readThrough[*domain.VotingStatus](ctx, s, cache.KeyVotingStatus, "voting_status", "/votes/status/", cache.TTLVotingStatus)
}

// GetMyVotes returns the user's confirmed vote history.
func (s *VotingService) GetMyVotes(ctx context.Context) ([]domain.Vote, error) {
	return readThrough[[]domain.Vote](ctx, s, cache.KeyMyVotes, "my_votes", "/votes/my-votes/", cache.TTLMyVotes)
}

// GetResults returns the tallied results for every position.
func (s *VotingService) GetResults(ctx context.Context) (*domain.Results, error) {
	return readThrough[*domain.Results](ctx, s, cache.KeyResults, "results", "/results/", cache.TTLResults)
}

// GetPositionResult returns the tallied result for one position.
func (s *VotingService) GetPositionResult(ctx context.Context, positionID int) (*domain.PositionResult, error) {
	path := fmt.Sprintf("/results/%d/", positionID)
	return readThrough[*domain.PositionResult](ctx, s, cache.ResultKey(positionID), "position_result", path, cache.TTLResultByID)
}

// GetStats returns the aggregate election analytics.
func (s *VotingService) GetStats(ctx context.Context) (*domain.Stats, error) {
	return readThrough[*domain.Stats](ctx, s, cache.KeyStats, "stats", "/analytics/stats/", cache.TTLStats)
}

// CastVote submits one vote for one position. On success it invalidates
// exactly the caches the submission made stale: voting status, the user's
// vote history, and the aggregate statistics. Results are left to expire on
// their own short TTL; the voter already saw their submission accepted, and
// vote-count freshness is not promised to them. On failure nothing in the
// cache changes and the backend's rejection is surfaced unchanged.
func (s *VotingService) CastVote(ctx context.Context, positionID, candidateID int) (*domain.VoteResponse, error) {
	if candidateID <= 0 {
		return nil, errors.NewValidationError("a candidate must be selected", map[string]interface{}{
			"position": positionID,
		})
	}

	req := domain.VoteRequest{
		Candidate: candidateID,
		Position:  positionID,
	}
	var resp domain.VoteResponse
	if err := s.api.Post(ctx, "/vote/", req, &resp); err != nil {
		metrics.ObserveVoteSubmission("rejected")
		return nil, err
	}
	metrics.ObserveVoteSubmission("accepted")

	s.cache.Clear(cache.KeyVotingStatus, cache.KeyMyVotes, cache.KeyStats)
	s.log.Debug("Vote caches invalidated",
		zap.Int("position_id", positionID),
		zap.Int("candidate_id", candidateID))

	return &resp, nil
}
