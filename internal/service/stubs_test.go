package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorpulse/internal/apify"
	"creatorpulse/internal/groq"
	"creatorpulse/internal/models"
)

// providerStub is a stub for ScrapeProvider.
type providerStub struct {
	startRunFn     func(context.Context, string, any) (*apify.Run, error)
	waitForRunFn   func(context.Context, string, time.Duration) (*apify.Run, error)
	datasetItemsFn func(context.Context, string) ([]map[string]any, error)
}

func (s *providerStub) StartRun(ctx context.Context, actorID string, input any) (*apify.Run, error) {
	return s.startRunFn(ctx, actorID, input)
}
func (s *providerStub) WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*apify.Run, error) {
	return s.waitForRunFn(ctx, runID, timeout)
}
func (s *providerStub) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	return s.datasetItemsFn(ctx, datasetID)
}

// providerReturning wires the happy path: the run starts, succeeds, and its
// dataset holds the given items.
func providerReturning(items ...map[string]any) *providerStub {
	return &providerStub{
		startRunFn: func(_ context.Context, _ string, _ any) (*apify.Run, error) {
			return &apify.Run{ID: "run-1", Status: "READY"}, nil
		},
		waitForRunFn: func(_ context.Context, runID string, _ time.Duration) (*apify.Run, error) {
			return &apify.Run{ID: runID, Status: apify.StatusSucceeded, DatasetID: "ds-1"}, nil
		},
		datasetItemsFn: func(_ context.Context, _ string) ([]map[string]any, error) {
			return items, nil
		},
	}
}

// videoRepoStub is a stub for repository.VideoRepository.
type videoRepoStub struct {
	filterNewFn         func(context.Context, []models.TikTokVideo) ([]models.TikTokVideo, error)
	bulkInsertFn        func(context.Context, []models.TikTokVideo) (int, error)
	latestPublishDateFn func(context.Context, string) (*time.Time, error)
	listByUsernameFn    func(context.Context, string, string, string, int, int) ([]models.TikTokVideo, error)
	topByEngagementFn   func(context.Context, string, int) ([]models.TikTokVideo, error)
}

func (s *videoRepoStub) FilterNew(ctx context.Context, videos []models.TikTokVideo) ([]models.TikTokVideo, error) {
	return s.filterNewFn(ctx, videos)
}
func (s *videoRepoStub) BulkInsert(ctx context.Context, videos []models.TikTokVideo) (int, error) {
	return s.bulkInsertFn(ctx, videos)
}
func (s *videoRepoStub) LatestPublishDate(ctx context.Context, username string) (*time.Time, error) {
	return s.latestPublishDateFn(ctx, username)
}
func (s *videoRepoStub) ListByUsername(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.TikTokVideo, error) {
	return s.listByUsernameFn(ctx, username, sortBy, order, limit, offset)
}
func (s *videoRepoStub) TopByEngagement(ctx context.Context, username string, limit int) ([]models.TikTokVideo, error) {
	return s.topByEngagementFn(ctx, username, limit)
}

func noopVideoRepo() *videoRepoStub {
	return &videoRepoStub{
		filterNewFn: func(_ context.Context, videos []models.TikTokVideo) ([]models.TikTokVideo, error) {
			return videos, nil
		},
		bulkInsertFn: func(_ context.Context, videos []models.TikTokVideo) (int, error) {
			return len(videos), nil
		},
		latestPublishDateFn: func(_ context.Context, _ string) (*time.Time, error) { return nil, nil },
		listByUsernameFn: func(_ context.Context, _, _, _ string, _, _ int) ([]models.TikTokVideo, error) {
			return nil, nil
		},
		topByEngagementFn: func(_ context.Context, _ string, _ int) ([]models.TikTokVideo, error) {
			return nil, nil
		},
	}
}

// tiktokProfileRepoStub is a stub for repository.TikTokProfileRepository.
type tiktokProfileRepoStub struct {
	upsertFn        func(context.Context, *models.TikTokProfile) error
	getByUsernameFn func(context.Context, string) (*models.TikTokProfile, error)
}

func (s *tiktokProfileRepoStub) Upsert(ctx context.Context, profile *models.TikTokProfile) error {
	return s.upsertFn(ctx, profile)
}
func (s *tiktokProfileRepoStub) GetByUsername(ctx context.Context, username string) (*models.TikTokProfile, error) {
	return s.getByUsernameFn(ctx, username)
}

func noopTikTokProfileRepo() *tiktokProfileRepoStub {
	return &tiktokProfileRepoStub{
		upsertFn: func(_ context.Context, _ *models.TikTokProfile) error { return nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.TikTokProfile, error) {
			return &models.TikTokProfile{}, nil
		},
	}
}

// instagramProfileRepoStub is a stub for repository.InstagramProfileRepository.
type instagramProfileRepoStub struct {
	upsertFn        func(context.Context, *models.InstagramProfile) error
	getByUsernameFn func(context.Context, string) (*models.InstagramProfile, error)
}

func (s *instagramProfileRepoStub) Upsert(ctx context.Context, profile *models.InstagramProfile) error {
	return s.upsertFn(ctx, profile)
}
func (s *instagramProfileRepoStub) GetByUsername(ctx context.Context, username string) (*models.InstagramProfile, error) {
	return s.getByUsernameFn(ctx, username)
}

func noopInstagramProfileRepo() *instagramProfileRepoStub {
	return &instagramProfileRepoStub{
		upsertFn: func(_ context.Context, _ *models.InstagramProfile) error { return nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.InstagramProfile, error) {
			return &models.InstagramProfile{}, nil
		},
	}
}

// instagramPostRepoStub is a stub for repository.InstagramPostRepository.
type instagramPostRepoStub struct {
	filterNewFn       func(context.Context, []models.InstagramPost) ([]models.InstagramPost, error)
	bulkInsertFn      func(context.Context, []models.InstagramPost) (int, error)
	latestTimestampFn func(context.Context, string) (*time.Time, error)
	listByUsernameFn  func(context.Context, string, string, string, int, int) ([]models.InstagramPost, error)
}

func (s *instagramPostRepoStub) FilterNew(ctx context.Context, posts []models.InstagramPost) ([]models.InstagramPost, error) {
	return s.filterNewFn(ctx, posts)
}
func (s *instagramPostRepoStub) BulkInsert(ctx context.Context, posts []models.InstagramPost) (int, error) {
	return s.bulkInsertFn(ctx, posts)
}
func (s *instagramPostRepoStub) LatestTimestamp(ctx context.Context, username string) (*time.Time, error) {
	return s.latestTimestampFn(ctx, username)
}
func (s *instagramPostRepoStub) ListByUsername(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.InstagramPost, error) {
	return s.listByUsernameFn(ctx, username, sortBy, order, limit, offset)
}

func noopInstagramPostRepo() *instagramPostRepoStub {
	return &instagramPostRepoStub{
		filterNewFn: func(_ context.Context, posts []models.InstagramPost) ([]models.InstagramPost, error) {
			return posts, nil
		},
		bulkInsertFn: func(_ context.Context, posts []models.InstagramPost) (int, error) {
			return len(posts), nil
		},
		latestTimestampFn: func(_ context.Context, _ string) (*time.Time, error) { return nil, nil },
		listByUsernameFn: func(_ context.Context, _, _, _ string, _, _ int) ([]models.InstagramPost, error) {
			return nil, nil
		},
	}
}

// recommenderStub is a stub for Recommender.
type recommenderStub struct {
	chatJSONFn func(context.Context, []groq.Message, float64) (string, error)
}

func (s *recommenderStub) ChatJSON(ctx context.Context, messages []groq.Message, temperature float64) (string, error) {
	return s.chatJSONFn(ctx, messages, temperature)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func rawTikTokVideo(username, url, publishedAt string) map[string]any {
	return map[string]any{
		"authorMeta": map[string]any{
			"name":     username,
			"fans":     float64(120000),
			"heart":    float64(3400000),
			"video":    float64(88),
			"verified": true,
			"region":   "US",
		},
		"text":          "morning routine",
		"createTimeISO": publishedAt,
		"webVideoUrl":   url,
		"diggCount":     float64(1200),
		"commentCount":  float64(45),
		"shareCount":    float64(30),
		"playCount":     float64(56000),
		"musicMeta":     map[string]any{"musicAuthor": "frahm"},
		"videoMeta":     map[string]any{"coverUrl": "https://cdn.example.com/cover.jpg"},
		"hashtags":      []any{map[string]any{"name": "morning"}},
	}
}

func rawInstagramDetail(posts ...map[string]any) map[string]any {
	list := make([]any, 0, len(posts))
	for _, p := range posts {
		list = append(list, p)
	}
	return map[string]any{
		"id":             "9911",
		"username":       "lena",
		"fullName":       "Lena Park",
		"biography":      "coffee first",
		"followersCount": float64(52000),
		"followsCount":   float64(310),
		"postsCount":     float64(87),
		"profilePicUrl":  "https://cdn.example.com/lena.jpg",
		"verified":       true,
		"private":        false,
		"latestPosts":    list,
	}
}

func rawInstagramPost(id, shortcode, timestamp string) map[string]any {
	return map[string]any{
		"id":            id,
		"shortCode":     shortcode,
		"caption":       "golden hour",
		"likesCount":    float64(840),
		"commentsCount": float64(12),
		"displayUrl":    "https://cdn.example.com/" + shortcode + ".jpg",
		"url":           "https://www.instagram.com/p/" + shortcode + "/",
		"timestamp":     timestamp,
	}
}
