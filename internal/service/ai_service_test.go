package service

import (
	"context"
	"testing"

	"campusvote/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIService_GetSummary(t *testing.T) {
	env := newTestEnv(t)

	insight, err := env.ai.GetSummary(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, insight.Summary)
	assert.Equal(t, insight.Summary, insight.Text())
}

func TestAIService_GetTurnoutAnalysis(t *testing.T) {
	env := newTestEnv(t)

	insight, err := env.ai.GetTurnoutAnalysis(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, insight.Analysis)
	assert.Equal(t, insight.Analysis, insight.Text())
}

func TestAIService_ProviderFailureIsDedicatedKind(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetAIFailing(true)

	_, err := env.ai.GetPrediction(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAIProvider))
}

func TestAIService_FailureLeavesVotingCacheAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.voting.GetPositions(ctx)
	require.NoError(t, err)
	cachedEntries := env.cache.Len()

	env.backend.SetAIFailing(true)
	_, err = env.ai.GetTurnoutAnalysis(ctx)
	require.Error(t, err)

	assert.Equal(t, cachedEntries, env.cache.Len())
	_, err = env.voting.GetPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.backend.Requests("/positions/"))
}

func TestAIService_AuthRejectionPassesThrough(t *testing.T) {
	env := newTestEnv(t)
	env.backend.SetRejectAuth(true)

	_, err := env.ai.GetSummary(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuthentication))
	assert.False(t, env.sessions.IsAuthenticated())
}
