package service

import (
	"context"
	"errors"
	"fmt"
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

// InstagramService drives the Instagram scraping pipeline and serves stored data.
type InstagramService struct {
	provider     ScrapeProvider
	profiles     repository.InstagramProfileRepository
	posts        repository.InstagramPostRepository
	profileLocks *keyedMutex
	resultsLimit int
	pollTimeout  time.Duration
}

// NewInstagramService creates a new InstagramService.
func NewInstagramService(provider ScrapeProvider, profiles repository.InstagramProfileRepository, posts repository.InstagramPostRepository, resultsLimit int, pollTimeout time.Duration) *InstagramService {
	if resultsLimit <= 0 {
		resultsLimit = 30
	}
	return &InstagramService{
		provider:     provider,
		profiles:     profiles,
		posts:        posts,
		profileLocks: newKeyedMutex(),
		resultsLimit: resultsLimit,
		pollTimeout:  pollTimeout,
	}
}

func (s *InstagramService) runInput(username string) map[string]any {
	return map[string]any{
		"addParentData":                     false,
		"directUrls":                        []string{fmt.Sprintf("https://www.instagram.com/%s/", username)},
		"enhanceUserSearchWithFacebookPage": false,
		"isUserReelFeedURL":                 false,
		"isUserTaggedFeedURL":               false,
		"resultsLimit":                      s.resultsLimit,
		"resultsType":                       "details",
		"searchLimit":                       1,
		"searchType":                        "hashtag",
	}
}

// ScrapeContent runs the full Instagram ingestion pipeline for one username.
// The details dataset carries a single record per account: the profile plus
// its recent posts nested underneath. Failures come back inside the result,
// never as an error.
func (s *InstagramService) ScrapeContent(ctx context.Context, username string) *models.InstagramScrapeResult {
	username = strings.Trim(username, "@")
	result := &models.InstagramScrapeResult{Username: username}
	start := time.Now()

	span, ctx := observability.NewSpan(ctx, "pipeline.instagram.scrape_content")
	defer span.End()
	span.AddAttributes(attribute.String("username", username))

	observability.LogPipelineStart(ctx, platformInstagram, username, nil)

	records, outcome, err := runDataset(ctx, s.provider, platformInstagram, apify.ActorInstagramScraper, s.runInput(username), s.pollTimeout)
	if err != nil {
		return s.contentFailed(ctx, span, result, outcome, err, start)
	}

	if len(records) == 0 {
		result.Error = "No results returned from Apify"
		observability.LogPipelineError(ctx, platformInstagram, username, errors.New(result.Error), nil)
		observability.ObserveScrapeRun(platformInstagram, observability.OutcomeEmpty, start)
		return result
	}

	detail := records[0]
	profile, err := normalize.InstagramProfile(detail)
	if err != nil {
		// Without the profile identity there is nothing to attach posts to.
		result.Error = "Could not parse profile data"
		span.SetError(err)
		observability.LogPipelineError(ctx, platformInstagram, username, err, nil)
		observability.ObserveScrapeRun(platformInstagram, observability.OutcomeInvalidData, start)
		return result
	}

	// Upsert reloads the stored row, so profile.ID is the key posts must
	// reference even when the account was first seen under an older scrape.
	result.ProfileSaved = s.saveProfile(ctx, profile) == nil

	posts, skipped := s.collectPosts(ctx, normalize.InstagramPosts(detail), profile.ID)
	result.Skipped = skipped

	fresh, err := s.posts.FilterNew(ctx, posts)
	if err != nil {
		return s.contentFailed(ctx, span, result, observability.OutcomePersistenceError, err, start)
	}
	saved, err := s.posts.BulkInsert(ctx, fresh)
	if err != nil {
		return s.contentFailed(ctx, span, result, observability.OutcomePersistenceError, err, start)
	}
	result.PostsSaved = saved
	observability.ItemsSavedTotal.WithLabelValues(platformInstagram, "post").Add(float64(saved))

	if latest, derr := s.posts.LatestTimestamp(ctx, username); derr == nil && latest != nil {
		iso := latest.UTC().Format(isoTimestamp)
		result.LatestPostDate = &iso
	}

	result.Success = true
	observability.LogPipelineEnd(ctx, platformInstagram, username, map[string]interface{}{
		"posts_saved":   saved,
		"skipped":       len(skipped),
		"profile_saved": result.ProfileSaved,
	})
	observability.ObserveScrapeRun(platformInstagram, observability.OutcomeSuccess, start)
	return result
}

// GetProfile returns the stored profile snapshot for a username.
func (s *InstagramService) GetProfile(ctx context.Context, username string) (*models.InstagramProfile, error) {
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

// GetPosts returns stored posts for a username in the caller's sort order.
func (s *InstagramService) GetPosts(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.InstagramPost, error) {
	username = strings.Trim(username, "@")
	posts, err := s.posts.ListByUsername(ctx, username, sortBy, order, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, models.NewNotFoundError("Posts", username)
	}
	return posts, nil
}

func (s *InstagramService) contentFailed(ctx context.Context, span *observability.Span, result *models.InstagramScrapeResult, outcome string, err error, start time.Time) *models.InstagramScrapeResult {
	result.Error = err.Error()
	span.SetError(err)
	observability.LogPipelineError(ctx, platformInstagram, result.Username, err, nil)
	observability.ObserveScrapeRun(platformInstagram, outcome, start)
	return result
}

// collectPosts normalizes the nested post records, dropping invalid ones and
// recording why each was dropped.
func (s *InstagramService) collectPosts(ctx context.Context, records []normalize.Record, profileID string) ([]models.InstagramPost, []models.SkippedRecord) {
	posts := make([]models.InstagramPost, 0, len(records))
	var skipped []models.SkippedRecord
	for i, rec := range records {
		post, err := normalize.InstagramPost(rec, profileID)
		if err != nil {
			skipped = append(skipped, skippedRecord(i, rec, err))
			observability.LogSkippedRecord(ctx, platformInstagram, i, err.Error(), rec.Keys())
			observability.RecordsSkippedTotal.WithLabelValues(platformInstagram, skipReason(err)).Inc()
			continue
		}
		posts = append(posts, *post)
	}
	return posts, skipped
}

// saveProfile replaces the stored profile under the per-username lock.
func (s *InstagramService) saveProfile(ctx context.Context, profile *models.InstagramProfile) error {
	unlock := s.profileLocks.Lock(profile.Username)
	defer unlock()
	return s.profiles.Upsert(ctx, profile)
}
