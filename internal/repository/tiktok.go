// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"creatorpulse/internal/cache"
	"creatorpulse/internal/models"
	"creatorpulse/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoRepository defines the interface for TikTok video data operations
type VideoRepository interface {
	FilterNew(ctx context.Context, videos []models.TikTokVideo) ([]models.TikTokVideo, error)
	BulkInsert(ctx context.Context, videos []models.TikTokVideo) (int, error)
	LatestPublishDate(ctx context.Context, username string) (*time.Time, error)
	ListByUsername(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.TikTokVideo, error)
	TopByEngagement(ctx context.Context, username string, limit int) ([]models.TikTokVideo, error)
}

// videoRepository implements VideoRepository
type videoRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewVideoRepository creates a new TikTok video repository
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{
		db:      db,
		logger:  observability.NewRepoLogger("tiktok_videos"),
		metrics: observability.NewDatabaseMetrics(db),
	}
}

// FilterNew returns the subset of videos whose VideoURL is not yet stored.
// Membership is resolved with a single IN query over the batch. Repeats within
// the batch itself are dropped too, first occurrence wins, so the returned
// slice carries exactly the rows a bulk insert would create.
func (r *videoRepository) FilterNew(ctx context.Context, videos []models.TikTokVideo) ([]models.TikTokVideo, error) {
	if len(videos) == 0 {
		return nil, nil
	}
	defer r.metrics.TrackQuery("filter_new", "tiktok_videos")()

	urls := make([]string, 0, len(videos))
	for _, v := range videos {
		urls = append(urls, v.VideoURL)
	}

	var existing []string
	err := r.db.WithContext(ctx).
		Model(&models.TikTokVideo{}).
		Where("video_url IN ?", urls).
		Pluck("video_url", &existing).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		seen[u] = struct{}{}
	}
	fresh := make([]models.TikTokVideo, 0, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.VideoURL]; ok {
			continue
		}
		seen[v.VideoURL] = struct{}{}
		fresh = append(fresh, v)
	}
	return fresh, nil
}

// BulkInsert persists a batch in one statement and reports how many rows were
// actually written. Rows colliding on VideoURL are skipped, so concurrent
// scrapes of the same account never fail the batch.
func (r *videoRepository) BulkInsert(ctx context.Context, videos []models.TikTokVideo) (int, error) {
	if len(videos) == 0 {
		return 0, nil
	}
	defer r.metrics.TrackQuery("bulk_insert", "tiktok_videos")()

	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_url"}},
			DoNothing: true,
		}).
		Create(&videos)
	if tx.Error != nil {
		r.logger.LogError(ctx, tx.Error, "bulk_insert")
		return 0, tx.Error
	}

	owners := make(map[string]struct{}, 1)
	for _, v := range videos {
		if _, ok := owners[v.Username]; ok {
			continue
		}
		owners[v.Username] = struct{}{}
		cache.InvalidateTikTokVideos(ctx, v.Username)
	}

	r.logger.LogWrite(ctx, "bulk_insert", map[string]interface{}{
		"attempted": len(videos),
		"inserted":  int(tx.RowsAffected),
	})
	return int(tx.RowsAffected), nil
}

// LatestPublishDate returns the newest stored publish date for a user, or nil
// when no videos exist yet.
func (r *videoRepository) LatestPublishDate(ctx context.Context, username string) (*time.Time, error) {
	var video models.TikTokVideo
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("publish_date DESC").
		First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &video.PublishDate, nil
}

func (r *videoRepository) ListByUsername(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.TikTokVideo, error) {
	videos := make([]models.TikTokVideo, 0)
	key := cache.TikTokVideosKey(username, sortBy, order, limit, offset)
	err := cache.Aside(ctx, key, &videos, cache.ListTTL, func() error {
		return r.db.WithContext(ctx).
			Where("username = ?", username).
			Order(videoOrder(sortBy, order)).
			Limit(limit).
			Offset(offset).
			Find(&videos).Error
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// TopByEngagement returns a user's videos ranked by total interaction count.
func (r *videoRepository) TopByEngagement(ctx context.Context, username string, limit int) ([]models.TikTokVideo, error) {
	var videos []models.TikTokVideo
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("(likes + comments + shares + views) DESC").
		Limit(limit).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// TikTokProfileRepository defines the interface for TikTok profile data operations
type TikTokProfileRepository interface {
	Upsert(ctx context.Context, profile *models.TikTokProfile) error
	GetByUsername(ctx context.Context, username string) (*models.TikTokProfile, error)
}

// tiktokProfileRepository implements TikTokProfileRepository
type tiktokProfileRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewTikTokProfileRepository creates a new TikTok profile repository
func NewTikTokProfileRepository(db *gorm.DB) TikTokProfileRepository {
	return &tiktokProfileRepository{
		db:      db,
		logger:  observability.NewRepoLogger("tiktok_profiles"),
		metrics: observability.NewDatabaseMetrics(db),
	}
}

// Upsert writes the profile, replacing every stored column when the username
// already exists. Fields absent from the new snapshot take its zero values.
func (r *tiktokProfileRepository) Upsert(ctx context.Context, profile *models.TikTokProfile) error {
	defer r.metrics.TrackQuery("upsert", "tiktok_profiles")()

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			UpdateAll: true,
		}).
		Create(profile).Error
	if err != nil {
		r.logger.LogError(ctx, err, "upsert")
		return err
	}

	cache.Invalidate(ctx, cache.TikTokProfileKey(profile.Username))
	r.logger.LogWrite(ctx, "upsert", map[string]interface{}{"username": profile.Username})
	return nil
}

func (r *tiktokProfileRepository) GetByUsername(ctx context.Context, username string) (*models.TikTokProfile, error) {
	var profile models.TikTokProfile
	err := cache.Aside(ctx, cache.TikTokProfileKey(username), &profile, cache.ProfileTTL, func() error {
		return r.db.WithContext(ctx).First(&profile, "username = ?", username).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
