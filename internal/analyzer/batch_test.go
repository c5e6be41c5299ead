package analyzer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/compliance-copilot/internal/ai"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/risk"
)

func TestAnalyzeBatch(t *testing.T) {
	stub := ai.NewStubSummarizer(risk.LevelMedium)
	svc := NewTestService(t, stub, TestOptions{})

	items, err := svc.AnalyzeBatch(context.Background(), []*Submission{
		prSubmission(),
		{SourceKind: "PR", Payload: json.RawMessage(`{"title":"no diff"}`)},
		ticketSubmission(),
		prSubmission(),
	})
	require.NoError(t, err)
	require.Len(t, items, 4)

	for i, item := range items {
		assert.Equal(t, i, item.Index)
	}
	require.NoError(t, items[0].Err)
	require.ErrorIs(t, items[1].Err, appErrors.ErrValidation)
	assert.Nil(t, items[1].Summary)
	require.NoError(t, items[2].Err)
	require.NoError(t, items[3].Err)

	assert.Equal(t, risk.LevelCritical, items[0].Summary.OverallRiskLevel)
	assert.Equal(t, risk.LevelLow, items[2].Summary.OverallRiskLevel)
	assert.Equal(t, items[0].Summary.Fingerprint, items[3].Summary.Fingerprint)
	// the duplicate PR shares one backend call
	assert.Equal(t, 2, stub.Calls())
}

func TestAnalyzeBatch_Limits(t *testing.T) {
	svc := NewTestService(t, ai.NewStubSummarizer(risk.LevelLow), TestOptions{})

	_, err := svc.AnalyzeBatch(context.Background(), nil)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	subs := make([]*Submission, MaxBatchSize+1)
	for i := range subs {
		subs[i] = ticketSubmission()
	}
	_, err = svc.AnalyzeBatch(context.Background(), subs)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "at most 20")
}

func TestAnalyzeBatch_CanceledContext(t *testing.T) {
	stub := ai.NewStubSummarizer(risk.LevelLow)
	svc := NewTestService(t, stub, TestOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := svc.AnalyzeBatch(ctx, []*Submission{ticketSubmission(), prSubmission()})
	require.NoError(t, err)
	for _, item := range items {
		assert.True(t, IsCallerAbort(item.Err))
	}
	assert.Zero(t, stub.Calls())
}
