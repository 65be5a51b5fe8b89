package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"creatorpulse/internal/apify"
	"creatorpulse/internal/models"
)

func TestInstagramService_ScrapeContent_SavesNewPosts(t *testing.T) {
	provider := providerReturning(rawInstagramDetail(
		rawInstagramPost("801", "Cx1aB", "2024-04-01T09:00:00Z"),
		rawInstagramPost("802", "Cx2cD", "2024-04-02T09:00:00Z"),
	))

	var inserted []models.InstagramPost
	posts := noopInstagramPostRepo()
	posts.bulkInsertFn = func(_ context.Context, batch []models.InstagramPost) (int, error) {
		inserted = batch
		return len(batch), nil
	}
	latest := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	posts.latestTimestampFn = func(_ context.Context, _ string) (*time.Time, error) {
		return &latest, nil
	}

	var savedProfile *models.InstagramProfile
	profiles := noopInstagramProfileRepo()
	profiles.upsertFn = func(_ context.Context, p *models.InstagramProfile) error {
		savedProfile = p
		return nil
	}

	svc := NewInstagramService(provider, profiles, posts, 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "@lena")

	require.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, "lena", result.Username)
	assert.Equal(t, 2, result.PostsSaved)
	assert.True(t, result.ProfileSaved)
	assert.Empty(t, result.Skipped)
	require.NotNil(t, result.LatestPostDate)
	assert.Equal(t, "2024-04-02T09:00:00", *result.LatestPostDate)

	require.NotNil(t, savedProfile)
	assert.Equal(t, "lena", savedProfile.Username)
	assert.Equal(t, "9911", savedProfile.ID)
	assert.Equal(t, 52000, savedProfile.FollowersCount)

	require.Len(t, inserted, 2)
	assert.Equal(t, "Cx1aB", inserted[0].Shortcode)
	assert.Equal(t, "9911", inserted[0].ProfileID)
	assert.Equal(t, 840, inserted[0].Likes)
}

func TestInstagramService_ScrapeContent_AttachesPostsToStoredProfileID(t *testing.T) {
	provider := providerReturning(rawInstagramDetail(
		rawInstagramPost("801", "Cx1aB", "2024-04-01T09:00:00Z"),
	))

	// The account was first stored under an earlier provider id. Upsert
	// reloads the row, so posts must attach to the stored id.
	profiles := noopInstagramProfileRepo()
	profiles.upsertFn = func(_ context.Context, p *models.InstagramProfile) error {
		p.ID = "7700"
		return nil
	}

	var inserted []models.InstagramPost
	posts := noopInstagramPostRepo()
	posts.bulkInsertFn = func(_ context.Context, batch []models.InstagramPost) (int, error) {
		inserted = batch
		return len(batch), nil
	}

	svc := NewInstagramService(provider, profiles, posts, 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	require.True(t, result.Success)
	require.Len(t, inserted, 1)
	assert.Equal(t, "7700", inserted[0].ProfileID)
}

func TestInstagramService_ScrapeContent_EmptyDataset(t *testing.T) {
	svc := NewInstagramService(providerReturning(), noopInstagramProfileRepo(), noopInstagramPostRepo(), 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	assert.False(t, result.Success)
	assert.Equal(t, "No results returned from Apify", result.Error)
	assert.Zero(t, result.PostsSaved)
}

func TestInstagramService_ScrapeContent_UnparsableProfile(t *testing.T) {
	detail := rawInstagramDetail(rawInstagramPost("801", "Cx1aB", "2024-04-01T09:00:00Z"))
	delete(detail, "id")
	provider := providerReturning(detail)

	posts := noopInstagramPostRepo()
	posts.bulkInsertFn = func(_ context.Context, _ []models.InstagramPost) (int, error) {
		t.Fatal("bulk insert called without a profile identity")
		return 0, nil
	}

	svc := NewInstagramService(provider, noopInstagramProfileRepo(), posts, 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	assert.False(t, result.Success)
	assert.Equal(t, "Could not parse profile data", result.Error)
}

func TestInstagramService_ScrapeContent_SkipsInvalidPosts(t *testing.T) {
	broken := rawInstagramPost("802", "Cx2cD", "2024-04-02T09:00:00Z")
	delete(broken, "timestamp")

	provider := providerReturning(rawInstagramDetail(
		rawInstagramPost("801", "Cx1aB", "2024-04-01T09:00:00Z"),
		broken,
	))

	svc := NewInstagramService(provider, noopInstagramProfileRepo(), noopInstagramPostRepo(), 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	require.True(t, result.Success)
	assert.Equal(t, 1, result.PostsSaved)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, "field timestamp: missing", result.Skipped[0].Reason)
	assert.Contains(t, result.Skipped[0].Fields, "shortCode")
}

func TestInstagramService_ScrapeContent_ProfileSaveFailureDoesNotAbort(t *testing.T) {
	provider := providerReturning(rawInstagramDetail(
		rawInstagramPost("801", "Cx1aB", "2024-04-01T09:00:00Z"),
	))
	profiles := noopInstagramProfileRepo()
	profiles.upsertFn = func(_ context.Context, _ *models.InstagramProfile) error {
		return errors.New("connection reset")
	}

	svc := NewInstagramService(provider, profiles, noopInstagramPostRepo(), 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	require.True(t, result.Success)
	assert.False(t, result.ProfileSaved)
	assert.Equal(t, 1, result.PostsSaved)
}

func TestInstagramService_ScrapeContent_RunFailure(t *testing.T) {
	provider := providerReturning()
	provider.waitForRunFn = func(_ context.Context, runID string, _ time.Duration) (*apify.Run, error) {
		return nil, &apify.RunFailedError{RunID: runID, Status: apify.StatusFailed}
	}

	svc := NewInstagramService(provider, noopInstagramProfileRepo(), noopInstagramPostRepo(), 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "FAILED")
}

func TestInstagramService_ScrapeContent_PersistenceFailure(t *testing.T) {
	provider := providerReturning(rawInstagramDetail(
		rawInstagramPost("801", "Cx1aB", "2024-04-01T09:00:00Z"),
	))
	posts := noopInstagramPostRepo()
	posts.bulkInsertFn = func(_ context.Context, _ []models.InstagramPost) (int, error) {
		return 0, errors.New("db down")
	}

	svc := NewInstagramService(provider, noopInstagramProfileRepo(), posts, 30, time.Minute)
	result := svc.ScrapeContent(context.Background(), "lena")

	assert.False(t, result.Success)
	assert.Equal(t, "db down", result.Error)
}

func TestInstagramService_ScrapeContent_SendsProfileURL(t *testing.T) {
	provider := providerReturning(rawInstagramDetail())
	var gotInput map[string]any
	startRun := provider.startRunFn
	provider.startRunFn = func(ctx context.Context, actorID string, input any) (*apify.Run, error) {
		gotInput = input.(map[string]any)
		return startRun(ctx, actorID, input)
	}

	svc := NewInstagramService(provider, noopInstagramProfileRepo(), noopInstagramPostRepo(), 12, time.Minute)
	svc.ScrapeContent(context.Background(), "@lena")

	require.NotNil(t, gotInput)
	assert.Equal(t, []string{"https://www.instagram.com/lena/"}, gotInput["directUrls"])
	assert.Equal(t, "details", gotInput["resultsType"])
	assert.Equal(t, 12, gotInput["resultsLimit"])
}

func TestInstagramService_GetProfile(t *testing.T) {
	profiles := noopInstagramProfileRepo()
	profiles.getByUsernameFn = func(_ context.Context, username string) (*models.InstagramProfile, error) {
		return &models.InstagramProfile{ID: "9911", Username: username}, nil
	}
	svc := NewInstagramService(providerReturning(), profiles, noopInstagramPostRepo(), 30, time.Minute)

	profile, err := svc.GetProfile(context.Background(), "@lena")
	require.NoError(t, err)
	assert.Equal(t, "lena", profile.Username)
	assert.Equal(t, "9911", profile.ID)
}

func TestInstagramService_GetProfile_NotFound(t *testing.T) {
	profiles := noopInstagramProfileRepo()
	profiles.getByUsernameFn = func(_ context.Context, _ string) (*models.InstagramProfile, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewInstagramService(providerReturning(), profiles, noopInstagramPostRepo(), 30, time.Minute)

	_, err := svc.GetProfile(context.Background(), "lena")
	assertNotFoundError(t, err)
}

func TestInstagramService_GetPosts_PassesSortArguments(t *testing.T) {
	posts := noopInstagramPostRepo()
	var gotSortBy, gotOrder string
	posts.listByUsernameFn = func(_ context.Context, username, sortBy, order string, limit, offset int) ([]models.InstagramPost, error) {
		gotSortBy, gotOrder = sortBy, order
		return []models.InstagramPost{{Shortcode: "Cx1aB"}}, nil
	}
	svc := NewInstagramService(providerReturning(), noopInstagramProfileRepo(), posts, 30, time.Minute)

	out, err := svc.GetPosts(context.Background(), "lena", "likes", "desc", 20, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "likes", gotSortBy)
	assert.Equal(t, "desc", gotOrder)
}

func TestInstagramService_GetPosts_EmptyIsNotFound(t *testing.T) {
	svc := NewInstagramService(providerReturning(), noopInstagramProfileRepo(), noopInstagramPostRepo(), 30, time.Minute)
	_, err := svc.GetPosts(context.Background(), "lena", "timestamp", "desc", 50, 0)
	assertNotFoundError(t, err)
}
