package service

import (
	"context"

	"campusvote/internal/domain"
	"campusvote/internal/transport"
	"campusvote/pkg/errors"
	"campusvote/pkg/logger"
)

// AIService fetches LLM-generated narratives about the election. The provider
// is a stateless collaborator: nothing here reads or writes voting cache
// state, and its failures are surfaced as a dedicated error kind so callers
// can degrade the insights surface independently of voting.
type AIService struct {
	api *transport.Client
	log *logger.Logger
}

// NewAIService creates the AI insight service.
func NewAIService(api *transport.Client, log *logger.Logger) *AIService {
	return &AIService{api: api, log: log}
}

var _ InsightProvider = (*AIService)(nil)

// GetSummary returns the narrative summary of current results.
func (s *AIService) GetSummary(ctx context.Context) (*domain.AIInsight, error) {
	return s.fetch(ctx, "/ai/summary/", "summary")
}

// GetPrediction returns the winner prediction analysis.
func (s *AIService) GetPrediction(ctx context.Context) (*domain.AIInsight, error) {
	return s.fetch(ctx, "/ai/prediction/", "prediction")
}

// GetTurnoutAnalysis returns the turnout analysis.
func (s *AIService) GetTurnoutAnalysis(ctx context.Context) (*domain.AIInsight, error) {
	return s.fetch(ctx, "/ai/turnout/", "turnout")
}

func (s *AIService) fetch(ctx context.Context, path, kind string) (*domain.AIInsight, error) {
	var insight domain.AIInsight
	if err := s.api.Get(ctx, path, &insight); err != nil {
		// An auth rejection already performed its corrective side effect in
		// the transport; pass it through so the caller redirects to login.
		if errors.IsType(err, errors.ErrorTypeAuthentication) {
			return nil, err
		}
		s.log.WithField("kind", kind).WithError(err).Warn("AI insight unavailable")
		return nil, errors.NewAIProviderError("failed to generate "+kind, err)
	}
	return &insight, nil
}
