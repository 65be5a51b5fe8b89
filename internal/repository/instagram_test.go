package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"creatorpulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testProfile(id, username string) *models.InstagramProfile {
	return &models.InstagramProfile{
		ID:             id,
		Username:       username,
		FullName:       "Full Name",
		Biography:      "travel and food",
		FollowersCount: 1200,
		FollowingCount: 300,
		PostsCount:     42,
		AvatarURL:      "https://cdn.example.com/avatar.jpg",
	}
}

func testPost(id, profileID, shortcode string, takenAt time.Time) models.InstagramPost {
	return models.InstagramPost{
		ID:        id,
		ProfileID: profileID,
		Shortcode: shortcode,
		Caption:   "post " + shortcode,
		Likes:     100,
		Comments:  10,
		ImageURL:  "https://cdn.example.com/" + shortcode + ".jpg",
		PostURL:   "https://www.instagram.com/p/" + shortcode + "/",
		Timestamp: takenAt,
	}
}

func TestInstagramProfileRepository_Upsert_ReplacesAllFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInstagramProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testProfile("ig-1", "lena")))

	// A later snapshot without biography or full name replaces the row.
	second := &models.InstagramProfile{
		ID:             "ig-1",
		Username:       "lena",
		FollowersCount: 1500,
		IsVerified:     1,
	}
	require.NoError(t, repo.Upsert(ctx, second))

	stored, err := repo.GetByUsername(ctx, "lena")
	require.NoError(t, err)
	assert.Equal(t, 1500, stored.FollowersCount)
	assert.Equal(t, 1, stored.IsVerified)
	assert.Equal(t, "", stored.FullName)
	assert.Equal(t, "", stored.Biography)
	assert.Equal(t, 0, stored.PostsCount)

	var count int64
	require.NoError(t, db.Model(&models.InstagramProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInstagramProfileRepository_Upsert_KeepsStoredID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInstagramProfileRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testProfile("ig-old", "lena")))

	renumbered := testProfile("ig-new", "lena")
	require.NoError(t, repo.Upsert(ctx, renumbered))

	// The caller's struct must reflect the persisted row so posts attach to it.
	assert.Equal(t, "ig-old", renumbered.ID)

	stored, err := repo.GetByUsername(ctx, "lena")
	require.NoError(t, err)
	assert.Equal(t, "ig-old", stored.ID)
}

func TestInstagramProfileRepository_GetByUsername_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInstagramProfileRepository(db)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInstagramPostRepository_BulkInsert(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewInstagramProfileRepository(db)
	posts := NewInstagramPostRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, profiles.Upsert(ctx, testProfile("ig-1", "lena")))

	n, err := posts.BulkInsert(ctx, []models.InstagramPost{
		testPost("p-1", "ig-1", "Cabc", base),
		testPost("p-2", "ig-1", "Cdef", base.Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-scrapes drop already stored shortcodes and keep the new one.
	n, err = posts.BulkInsert(ctx, []models.InstagramPost{
		testPost("p-2b", "ig-1", "Cdef", base.Add(time.Hour)),
		testPost("p-3", "ig-1", "Cghi", base.Add(2*time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var count int64
	require.NoError(t, db.Model(&models.InstagramPost{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestInstagramPostRepository_FilterNew(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewInstagramProfileRepository(db)
	posts := NewInstagramPostRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, profiles.Upsert(ctx, testProfile("ig-1", "lena")))
	_, err := posts.BulkInsert(ctx, []models.InstagramPost{
		testPost("p-1", "ig-1", "Cabc", base),
	})
	require.NoError(t, err)

	fresh, err := posts.FilterNew(ctx, []models.InstagramPost{
		testPost("p-1b", "ig-1", "Cabc", base),
		testPost("p-2", "ig-1", "Cdef", base.Add(time.Hour)),
	})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Cdef", fresh[0].Shortcode)

	fresh, err = posts.FilterNew(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, fresh)
}

func TestInstagramPostRepository_FilterNew_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewInstagramPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "shortcode" FROM "instagram_posts" WHERE shortcode IN ($1)`)).
		WithArgs("Cabc").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FilterNew(context.Background(), []models.InstagramPost{
		{Shortcode: "Cabc"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstagramPostRepository_LatestTimestamp(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewInstagramProfileRepository(db)
	posts := NewInstagramPostRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	latest, err := posts.LatestTimestamp(ctx, "lena")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, profiles.Upsert(ctx, testProfile("ig-1", "lena")))
	require.NoError(t, profiles.Upsert(ctx, testProfile("ig-2", "marta")))

	_, err = posts.BulkInsert(ctx, []models.InstagramPost{
		testPost("p-1", "ig-1", "Cabc", base),
		testPost("p-2", "ig-1", "Cdef", base.Add(time.Hour)),
		testPost("p-3", "ig-2", "Cxyz", base.Add(48*time.Hour)),
	})
	require.NoError(t, err)

	latest, err = posts.LatestTimestamp(ctx, "lena")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.WithinDuration(t, base.Add(time.Hour), *latest, time.Second)
}

func TestInstagramPostRepository_ListByUsername(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewInstagramProfileRepository(db)
	posts := NewInstagramPostRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, profiles.Upsert(ctx, testProfile("ig-1", "lena")))
	require.NoError(t, profiles.Upsert(ctx, testProfile("ig-2", "marta")))

	older := testPost("p-1", "ig-1", "Cabc", base)
	older.Likes = 900
	newer := testPost("p-2", "ig-1", "Cdef", base.Add(time.Hour))
	newer.Likes = 100
	foreign := testPost("p-3", "ig-2", "Cxyz", base.Add(2*time.Hour))

	_, err := posts.BulkInsert(ctx, []models.InstagramPost{older, newer, foreign})
	require.NoError(t, err)

	tests := []struct {
		name     string
		sortBy   string
		order    string
		wantCode []string
	}{
		{
			name:     "newest first by default",
			sortBy:   "timestamp",
			order:    "desc",
			wantCode: []string{"Cdef", "Cabc"},
		},
		{
			name:     "likes descending",
			sortBy:   "likes",
			order:    "desc",
			wantCode: []string{"Cabc", "Cdef"},
		},
		{
			name:     "unknown sort falls back to timestamp",
			sortBy:   "followers",
			order:    "desc",
			wantCode: []string{"Cdef", "Cabc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := posts.ListByUsername(ctx, "lena", tt.sortBy, tt.order, 10, 0)
			require.NoError(t, err)
			codes := make([]string, 0, len(got))
			for _, p := range got {
				codes = append(codes, p.Shortcode)
			}
			assert.Equal(t, tt.wantCode, codes)
		})
	}
}
