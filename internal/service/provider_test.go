package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorpulse/internal/apify"
	"creatorpulse/internal/normalize"
	"creatorpulse/internal/observability"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	unlock := km.Lock("charli")

	acquired := make(chan struct{})
	go func() {
		u := km.Lock("charli")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	unlock := km.Lock("charli")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := km.Lock("khaby")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different key blocked by unrelated lock")
	}
}

func TestRunDataset_ClassifiesFailures(t *testing.T) {
	startErr := errors.New("connection refused")

	tests := []struct {
		name        string
		provider    *providerStub
		wantOutcome string
		wantErrPart string
	}{
		{
			name: "start run failure",
			provider: &providerStub{
				startRunFn: func(_ context.Context, _ string, _ any) (*apify.Run, error) {
					return nil, startErr
				},
			},
			wantOutcome: observability.OutcomeProviderError,
			wantErrPart: "Apify API error",
		},
		{
			name: "run aborted",
			provider: &providerStub{
				startRunFn: func(_ context.Context, _ string, _ any) (*apify.Run, error) {
					return &apify.Run{ID: "run-1"}, nil
				},
				waitForRunFn: func(_ context.Context, runID string, _ time.Duration) (*apify.Run, error) {
					return nil, &apify.RunFailedError{RunID: runID, Status: apify.StatusAborted}
				},
			},
			wantOutcome: observability.OutcomeJobFailed,
			wantErrPart: "ABORTED",
		},
		{
			name: "wait timeout",
			provider: &providerStub{
				startRunFn: func(_ context.Context, _ string, _ any) (*apify.Run, error) {
					return &apify.Run{ID: "run-1"}, nil
				},
				waitForRunFn: func(_ context.Context, _ string, _ time.Duration) (*apify.Run, error) {
					return nil, apify.ErrRunTimeout
				},
			},
			wantOutcome: observability.OutcomeTimeout,
			wantErrPart: "timed out",
		},
		{
			name: "dataset download failure",
			provider: &providerStub{
				startRunFn: func(_ context.Context, _ string, _ any) (*apify.Run, error) {
					return &apify.Run{ID: "run-1"}, nil
				},
				waitForRunFn: func(_ context.Context, runID string, _ time.Duration) (*apify.Run, error) {
					return &apify.Run{ID: runID, Status: apify.StatusSucceeded, DatasetID: "ds-1"}, nil
				},
				datasetItemsFn: func(_ context.Context, _ string) ([]map[string]any, error) {
					return nil, errors.New("dataset gone")
				},
			},
			wantOutcome: observability.OutcomeProviderError,
			wantErrPart: "fetch dataset items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, outcome, err := runDataset(context.Background(), tt.provider, "tiktok", apify.ActorTikTokScraper, map[string]any{}, time.Minute)
			require.Error(t, err)
			assert.Nil(t, records)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Contains(t, err.Error(), tt.wantErrPart)
		})
	}
}

func TestRunDataset_ReturnsRecords(t *testing.T) {
	provider := providerReturning(
		rawTikTokVideo("charli", "https://www.tiktok.com/@charli/video/1", "2024-03-01T10:00:00Z"),
	)

	records, outcome, err := runDataset(context.Background(), provider, "tiktok", apify.ActorTikTokScraper, map[string]any{}, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, outcome)
	require.Len(t, records, 1)
	assert.Equal(t, "charli", records[0].Child("authorMeta").String("name"))
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, "missing", skipReason(&normalize.FieldError{Field: "timestamp", Reason: "missing"}))
	assert.Equal(t, "invalid", skipReason(errors.New("boom")))
}
