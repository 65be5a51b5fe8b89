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

// InstagramProfileRepository defines the interface for Instagram profile data operations
type InstagramProfileRepository interface {
	Upsert(ctx context.Context, profile *models.InstagramProfile) error
	GetByUsername(ctx context.Context, username string) (*models.InstagramProfile, error)
}

// instagramProfileRepository implements InstagramProfileRepository
type instagramProfileRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewInstagramProfileRepository creates a new Instagram profile repository
func NewInstagramProfileRepository(db *gorm.DB) InstagramProfileRepository {
	return &instagramProfileRepository{
		db:      db,
		logger:  observability.NewRepoLogger("instagram_profiles"),
		metrics: observability.NewDatabaseMetrics(db),
	}
}

// Upsert writes the profile, replacing every stored column when the username
// already exists. The stored row keeps its original primary key on conflict,
// so the profile is reloaded afterwards and callers always see the persisted
// row they should attach posts to.
func (r *instagramProfileRepository) Upsert(ctx context.Context, profile *models.InstagramProfile) error {
	defer r.metrics.TrackQuery("upsert", "instagram_profiles")()

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

	if err := r.db.WithContext(ctx).First(profile, "username = ?", profile.Username).Error; err != nil {
		return err
	}

	cache.Invalidate(ctx, cache.InstagramProfileKey(profile.Username))
	r.logger.LogWrite(ctx, "upsert", map[string]interface{}{"username": profile.Username})
	return nil
}

func (r *instagramProfileRepository) GetByUsername(ctx context.Context, username string) (*models.InstagramProfile, error) {
	var profile models.InstagramProfile
	err := cache.Aside(ctx, cache.InstagramProfileKey(username), &profile, cache.ProfileTTL, func() error {
		return r.db.WithContext(ctx).First(&profile, "username = ?", username).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// InstagramPostRepository defines the interface for Instagram post data operations
type InstagramPostRepository interface {
	FilterNew(ctx context.Context, posts []models.InstagramPost) ([]models.InstagramPost, error)
	BulkInsert(ctx context.Context, posts []models.InstagramPost) (int, error)
	LatestTimestamp(ctx context.Context, username string) (*time.Time, error)
	ListByUsername(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.InstagramPost, error)
}

// instagramPostRepository implements InstagramPostRepository
type instagramPostRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewInstagramPostRepository creates a new Instagram post repository
func NewInstagramPostRepository(db *gorm.DB) InstagramPostRepository {
	return &instagramPostRepository{
		db:      db,
		logger:  observability.NewRepoLogger("instagram_posts"),
		metrics: observability.NewDatabaseMetrics(db),
	}
}

// FilterNew returns the subset of posts whose Shortcode is not yet stored.
// Repeats within the batch itself are dropped too, first occurrence wins.
func (r *instagramPostRepository) FilterNew(ctx context.Context, posts []models.InstagramPost) ([]models.InstagramPost, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	defer r.metrics.TrackQuery("filter_new", "instagram_posts")()

	codes := make([]string, 0, len(posts))
	for _, p := range posts {
		codes = append(codes, p.Shortcode)
	}

	var existing []string
	err := r.db.WithContext(ctx).
		Model(&models.InstagramPost{}).
		Where("shortcode IN ?", codes).
		Pluck("shortcode", &existing).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[c] = struct{}{}
	}
	fresh := make([]models.InstagramPost, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.Shortcode]; ok {
			continue
		}
		seen[p.Shortcode] = struct{}{}
		fresh = append(fresh, p)
	}
	return fresh, nil
}

// BulkInsert persists a batch in one statement and reports how many rows were
// actually written. Rows colliding on Shortcode are skipped.
func (r *instagramPostRepository) BulkInsert(ctx context.Context, posts []models.InstagramPost) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	defer r.metrics.TrackQuery("bulk_insert", "instagram_posts")()

	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shortcode"}},
			DoNothing: true,
		}).
		Create(&posts)
	if tx.Error != nil {
		r.logger.LogError(ctx, tx.Error, "bulk_insert")
		return 0, tx.Error
	}

	r.invalidateOwners(ctx, posts)
	r.logger.LogWrite(ctx, "bulk_insert", map[string]interface{}{
		"attempted": len(posts),
		"inserted":  int(tx.RowsAffected),
	})
	return int(tx.RowsAffected), nil
}

// invalidateOwners clears cached post lists for every profile touched by a
// batch. Posts carry profile IDs, so usernames are resolved in one query.
func (r *instagramPostRepository) invalidateOwners(ctx context.Context, posts []models.InstagramPost) {
	ids := make([]string, 0, 1)
	seen := make(map[string]struct{}, 1)
	for _, p := range posts {
		if _, ok := seen[p.ProfileID]; ok {
			continue
		}
		seen[p.ProfileID] = struct{}{}
		ids = append(ids, p.ProfileID)
	}

	var usernames []string
	if err := r.db.WithContext(ctx).
		Model(&models.InstagramProfile{}).
		Where("id IN ?", ids).
		Pluck("username", &usernames).Error; err != nil {
		return
	}
	for _, u := range usernames {
		cache.InvalidateInstagramPosts(ctx, u)
	}
}

// LatestTimestamp returns the newest stored post timestamp for a user, or nil
// when no posts exist yet.
func (r *instagramPostRepository) LatestTimestamp(ctx context.Context, username string) (*time.Time, error) {
	var post models.InstagramPost
	err := r.db.WithContext(ctx).
		Select("instagram_posts.*").
		Joins("JOIN instagram_profiles ON instagram_profiles.id = instagram_posts.profile_id").
		Where("instagram_profiles.username = ?", username).
		Order("instagram_posts.timestamp DESC").
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post.Timestamp, nil
}

func (r *instagramPostRepository) ListByUsername(ctx context.Context, username, sortBy, order string, limit, offset int) ([]models.InstagramPost, error) {
	posts := make([]models.InstagramPost, 0)
	key := cache.InstagramPostsKey(username, sortBy, order, limit, offset)
	err := cache.Aside(ctx, key, &posts, cache.ListTTL, func() error {
		return r.db.WithContext(ctx).
			Select("instagram_posts.*").
			Joins("JOIN instagram_profiles ON instagram_profiles.id = instagram_posts.profile_id").
			Where("instagram_profiles.username = ?", username).
			Order(postOrder(sortBy, order)).
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}
