package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"creatorpulse/internal/apify"
	"creatorpulse/internal/models"
	"creatorpulse/internal/normalize"
	"creatorpulse/internal/observability"
	"creatorpulse/internal/repository"
)

// tiktokIdentityKeys distinguish real video records from list envelopes that
// need one level of flattening before normalization.
var tiktokIdentityKeys = []string{"authorMeta", "webVideoUrl"}

// TikTokService drives the TikTok scraping pipelines and serves stored data.
type TikTokService struct {
	provider       ScrapeProvider
	videos         repository.VideoRepository
	profiles       repository.TikTokProfileRepository
	profileLocks   *keyedMutex
	resultsPerPage int
	pollTimeout    time.Duration
}

// NewTikTokService creates a new TikTokService.
func NewTikTokService(provider ScrapeProvider, videos repository.VideoRepository, profiles repository.TikTokProfileRepository, resultsPerPage int, pollTimeout time.Duration) *TikTokService {
	if resultsPerPage <= 0 {
		resultsPerPage = 50
	}
	return &TikTokService{
		provider:       provider,
		videos:         videos,
		profiles:       profiles,
		profileLocks:   newKeyedMutex(),
		resultsPerPage: resultsPerPage,
		pollTimeout:    pollTimeout,
	}
}

func (s *TikTokService) contentRunInput(username string) map[string]any {
	return map[string]any{
		"profiles":                      []string{username},
		"resultsPerPage":                s.resultsPerPage,
		"shouldDownloadCovers":          true,
		"shouldDownloadVideos":          false,
		"shouldDownloadSlideshowImages": false,
		"maxProfilesPerQuery":           1,
	}
}

func (s *TikTokService) profileRunInput(username string) map[string]any {
	return map[string]any{
		"profiles":                      []string{username},
		"shouldDownloadCovers":          false,
		"shouldDownloadVideos":          false,
		"shouldDownloadSlideshowImages": false,
		"shouldDownloadSubtitles":       false,
		"resultsPerPage":                1,
	}
}

// ScrapeContent runs the full TikTok ingestion pipeline for one username:
// start the actor run, wait it out, download the dataset, normalize each
// record, replace the profile snapshot, and persist the videos that are not
// already stored. Failures come back inside the result, never as an error.
func (s *TikTokService) ScrapeContent(ctx context.Context, username string) *models.TikTokScrapeResult {
	username = strings.Trim(username, "@")
	result := &models.TikTokScrapeResult{Username: username}
	start := time.Now()

	span, ctx := observability.NewSpan(ctx, "pipeline.tiktok.scrape_content")
	defer span.End()
	span.AddAttributes(attribute.String("username", username))

	observability.LogPipelineStart(ctx, platformTikTok, username, nil)

	records, outcome, err := runDataset(ctx, s.provider, platformTikTok, apify.ActorTikTokScraper, s.contentRunInput(username), s.pollTimeout)
	if err != nil {
		return s.contentFailed(ctx, span, result, outcome, err, start)
	}
	records = normalize.FlattenNested(records, tiktokIdentityKeys, "items")

	if len(records) == 0 {
		result.Error = "No videos found for this user"
		observability.LogPipelineError(ctx, platformTikTok, username, errors.New(result.Error), nil)
		observability.ObserveScrapeRun(platformTikTok, observability.OutcomeEmpty, start)
		return result
	}

	// The profile rides along in every video's author metadata; a failed
	// profile save does not abort the video batch.
	if profile, perr := normalize.TikTokProfile(records[0]); perr == nil {
		result.ProfileSaved = s.saveProfile(ctx, profile) == nil
	}

	videos, skipped := s.collectVideos(ctx, records)
	result.Skipped = skipped

	fresh, err := s.videos.FilterNew(ctx, videos)
	if err != nil {
		return s.contentFailed(ctx, span, result, observability.OutcomePersistenceError, err, start)
	}
	saved, err := s.videos.BulkInsert(ctx, fresh)
	if err != nil {
		return s.contentFailed(ctx, span, result, observability.OutcomePersistenceError, err, start)
	}
	result.VideosSaved = saved
	observability.ItemsSavedTotal.WithLabelValues(platformTikTok, "video").Add(float64(saved))

	if latest, derr := s.videos.LatestPublishDate(ctx, username); derr == nil && latest != nil {
		iso := latest.UTC().Format(isoTimestamp)
		result.LatestVideoDate = &iso
	}

	result.Success = true
	observability.LogPipelineEnd(ctx, platformTikTok, username, map[string]interface{}{
		"videos_saved":  saved,
		"skipped":       len(skipped),
		"profile_saved": result.ProfileSaved,
	})
	observability.ObserveScrapeRun(platformTikTok, observability.OutcomeSuccess, start)
	return result
}

// ScrapeProfile refreshes only the profile snapshot through the lighter
// profile actor, leaving video history untouched.
func (s *TikTokService) ScrapeProfile(ctx context.Context, username string) *models.TikTokProfileResult {
	username = strings.Trim(username, "@")
	result := &models.TikTokProfileResult{Username: username}
	start := time.Now()

	span, ctx := observability.NewSpan(ctx, "pipeline.tiktok.scrape_profile")
	defer span.End()
	span.AddAttributes(attribute.String("username", username))

	observability.LogPipelineStart(ctx, platformTikTokProfile, username, nil)

	records, outcome, err := runDataset(ctx, s.provider, platformTikTokProfile, apify.ActorTikTokProfileScraper, s.profileRunInput(username), s.pollTimeout)
	if err != nil {
		result.Error = err.Error()
		span.SetError(err)
		observability.LogPipelineError(ctx, platformTikTokProfile, username, err, nil)
		observability.ObserveScrapeRun(platformTikTokProfile, outcome, start)
		return result
	}

	if len(records) == 0 {
		result.Error = "No profile data found for this user"
		observability.LogPipelineError(ctx, platformTikTokProfile, username, errors.New(result.Error), nil)
		observability.ObserveScrapeRun(platformTikTokProfile, observability.OutcomeEmpty, start)
		return result
	}

	profile, err := normalize.TikTokProfile(records[0])
	if err != nil {
		result.Error = "Could not parse profile data"
		span.SetError(err)
		observability.LogPipelineError(ctx, platformTikTokProfile, username, err, nil)
		observability.ObserveScrapeRun(platformTikTokProfile, observability.OutcomeInvalidData, start)
		return result
	}

	// The scrape itself succeeded at this point. A failed save is reported
	// through ProfileUpdated while the fresh snapshot is still returned.
	saveErr := s.saveProfile(ctx, profile)
	result.ProfileData = profile
	result.ProfileUpdated = saveErr == nil
	result.Success = true

	outcome = observability.OutcomeSuccess
	if saveErr != nil {
		outcome = observability.OutcomePersistenceError
		span.SetError(saveErr)
		observability.LogPipelineError(ctx, platformTikTokProfile, username, saveErr, nil)
	}
	observability.LogPipelineEnd(ctx, platformTikTokProfile, username, map[string]interface{}{
		"profile_updated": result.ProfileUpdated,
	})
	observability.ObserveScrapeRun(platformTikTokProfile, outcome, start)
	return result
}

// GetProfile returns the stored profile snapshot for a username.
func (s *TikTokService) GetProfile(ctx context.Context, username string) (*models.TikTokProfile, error) {
	username = strings.Trim(username, "@")
	profile, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", username)
		}
		return nil, err
	}
	return profile, nil
}

// GetVideos returns stored videos for a username in the caller's sort order.
func (s *TikTokService) GetVideos(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.TikTokVideo, error) {
	username = strings.Trim(username, "@")
	videos, err := s.videos.ListByUsername(ctx, username, sortBy, order, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, models.NewNotFoundError("Videos", username)
	}
	return videos, nil
}

func (s *TikTokService) contentFailed(ctx context.Context, span *observability.Span, result *models.TikTokScrapeResult, outcome string, err error, start time.Time) *models.TikTokScrapeResult {
	result.Error = err.Error()
	span.SetError(err)
	observability.LogPipelineError(ctx, platformTikTok, result.Username, err, nil)
	observability.ObserveScrapeRun(platformTikTok, outcome, start)
	return result
}

// collectVideos normalizes the raw batch, dropping invalid records and
// recording why each one was dropped.
func (s *TikTokService) collectVideos(ctx context.Context, records []normalize.Record) ([]models.TikTokVideo, []models.SkippedRecord) {
	videos := make([]models.TikTokVideo, 0, len(records))
	var skipped []models.SkippedRecord
	for i, rec := range records {
		video, err := normalize.TikTokVideo(rec)
		if err != nil {
			skipped = append(skipped, skippedRecord(i, rec, err))
			observability.LogSkippedRecord(ctx, platformTikTok, i, err.Error(), rec.Keys())
			observability.RecordsSkippedTotal.WithLabelValues(platformTikTok, skipReason(err)).Inc()
			continue
		}
		videos = append(videos, *video)
	}
	return videos, skipped
}

// saveProfile replaces the stored profile under the per-username lock.
func (s *TikTokService) saveProfile(ctx context.Context, profile *models.TikTokProfile) error {
	unlock := s.profileLocks.Lock(profile.Username)
	defer unlock()
	return s.profiles.Upsert(ctx, profile)
}
