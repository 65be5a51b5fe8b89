// Package service implements the scraping pipelines that tie the provider
// client, normalization, and persistence layers together.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"creatorpulse/internal/apify"
	"creatorpulse/internal/models"
	"creatorpulse/internal/normalize"
	"creatorpulse/internal/observability"
)

// Platform label values for metrics and logs.
const (
	platformTikTok        = "tiktok"
	platformTikTokProfile = "tiktok_profile"
	platformInstagram     = "instagram"
)

// isoTimestamp is the wire format for latest-item dates in scrape results.
const isoTimestamp = "2006-01-02T15:04:05"

// ScrapeProvider is the slice of the Apify client the pipelines depend on.
type ScrapeProvider interface {
	StartRun(ctx context.Context, actorID string, input any) (*apify.Run, error)
	WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*apify.Run, error)
	DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error)
}

// keyedMutex serializes work per key. Profile rows are replaced wholesale on
// every scrape, so two concurrent runs for the same username must not
// interleave their save sequences.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// runDataset starts an actor run, waits for it to finish, and downloads the
// dataset it produced. When err is non-nil the second return value carries
// the metric outcome that classifies the failure.
func runDataset(ctx context.Context, provider ScrapeProvider, platform, actorID string, input any, timeout time.Duration) ([]normalize.Record, string, error) {
	tl := observability.GetTraceLayer()

	callCtx, span := tl.TraceProviderCall(ctx, "start_run")
	run, err := provider.StartRun(callCtx, actorID, input)
	span.End()
	if err != nil {
		return nil, observability.OutcomeProviderError, fmt.Errorf("Apify API error: %w", err)
	}

	waitStart := time.Now()
	callCtx, span = tl.TraceProviderCall(ctx, "wait_for_run")
	run, err = provider.WaitForRun(callCtx, run.ID, timeout)
	span.End()
	observability.ProviderWaitDuration.WithLabelValues(platform).Observe(time.Since(waitStart).Seconds())
	if err != nil {
		var failed *apify.RunFailedError
		switch {
		case errors.Is(err, apify.ErrRunTimeout):
			return nil, observability.OutcomeTimeout, err
		case errors.As(err, &failed):
			return nil, observability.OutcomeJobFailed, err
		default:
			return nil, observability.OutcomeProviderError, err
		}
	}

	callCtx, span = tl.TraceProviderCall(ctx, "dataset_items")
	items, err := provider.DatasetItems(callCtx, run.DatasetID)
	span.End()
	if err != nil {
		return nil, observability.OutcomeProviderError, fmt.Errorf("fetch dataset items: %w", err)
	}

	return normalize.Records(items), "", nil
}

func skippedRecord(index int, rec normalize.Record, err error) models.SkippedRecord {
	return models.SkippedRecord{Index: index, Reason: err.Error(), Fields: rec.Keys()}
}

// skipReason reduces a normalization error to a bounded metric label.
func skipReason(err error) string {
	var fieldErr *normalize.FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Reason
	}
	return "invalid"
}
