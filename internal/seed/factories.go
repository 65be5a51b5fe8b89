// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"creatorpulse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

var hashtagPool = []string{
	"fyp", "viral", "trending", "comedy", "dance", "food", "fitness",
	"travel", "fashion", "beauty", "diy", "pets", "music", "art",
	"gaming", "sports", "motivation", "cooking", "vlog", "tutorial",
}

const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder command and tests.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db: db,
		r:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// pastDate returns a timestamp spread over the previous maxDays days.
func (f *Factory) pastDate(maxDays int) time.Time {
	daysBack := f.r.Intn(maxDays)
	hoursBack := f.r.Intn(24)
	minsBack := f.r.Intn(60)
	return time.Now().UTC().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

func (f *Factory) hashtags(n int) []string {
	tags := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(tags) < n {
		tag := hashtagPool[f.r.Intn(len(hashtagPool))]
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

func (f *Factory) shortcode() string {
	b := make([]byte, 11)
	for i := range b {
		b[i] = shortcodeAlphabet[f.r.Intn(len(shortcodeAlphabet))]
	}
	return string(b)
}

// CreateTikTokProfile constructs and persists a sample creator profile.
// Optional override functions may modify the generated profile before saving.
func (f *Factory) CreateTikTokProfile(overrides ...func(*models.TikTokProfile)) (*models.TikTokProfile, error) {
	profile := &models.TikTokProfile{
		Username:  strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Region:    gofakeit.CountryAbr(),
		Following: gofakeit.Number(50, 2000),
		Friends:   gofakeit.Number(10, 500),
		Fans:      gofakeit.Number(1000, 5000000),
		Heart:     gofakeit.Number(10000, 90000000),
		Video:     gofakeit.Number(5, 900),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Signature: gofakeit.Sentence(6),
	}
	if f.r.Intn(10) == 0 {
		profile.Verified = 1
	}

	for _, override := range overrides {
		override(profile)
	}

	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateTikTokVideo constructs and persists a sample video for the given
// creator profile.
func (f *Factory) CreateTikTokVideo(profile *models.TikTokProfile, overrides ...func(*models.TikTokVideo)) (*models.TikTokVideo, error) {
	views := gofakeit.Number(1000, 2000000)
	video := &models.TikTokVideo{
		Username:     profile.Username,
		Caption:      gofakeit.Sentence(8),
		Hashtags:     f.hashtags(1 + f.r.Intn(4)),
		Likes:        views / (5 + f.r.Intn(20)),
		Comments:     views / (100 + f.r.Intn(400)),
		Shares:       views / (200 + f.r.Intn(800)),
		Views:        views,
		PublishDate:  f.pastDate(90),
		Music:        fmt.Sprintf("original sound - %s", profile.Username),
		ThumbnailURL: fmt.Sprintf("https://picsum.photos/seed/%s/540/960", gofakeit.UUID()),
		VideoURL:     fmt.Sprintf("https://www.tiktok.com/@%s/video/%d", profile.Username, f.r.Int63()),
	}
	if f.r.Intn(2) == 0 {
		video.Music = gofakeit.Name()
	}

	for _, override := range overrides {
		override(video)
	}

	if err := f.db.Create(video).Error; err != nil {
		return nil, err
	}
	return video, nil
}

// CreateInstagramProfile constructs and persists a sample Instagram account.
func (f *Factory) CreateInstagramProfile(overrides ...func(*models.InstagramProfile)) (*models.InstagramProfile, error) {
	profile := &models.InstagramProfile{
		ID:             fmt.Sprintf("%d", gofakeit.Number(100000000, 999999999)),
		Username:       strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		FullName:       gofakeit.Name(),
		Biography:      gofakeit.Sentence(10),
		FollowersCount: gofakeit.Number(500, 3000000),
		FollowingCount: gofakeit.Number(50, 2000),
		PostsCount:     gofakeit.Number(10, 800),
		AvatarURL:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	if f.r.Intn(10) == 0 {
		profile.IsVerified = 1
	}
	if f.r.Intn(8) == 0 {
		profile.IsPrivate = 1
	}

	for _, override := range overrides {
		override(profile)
	}

	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateInstagramPost constructs and persists a sample feed post attached to
// the given profile.
func (f *Factory) CreateInstagramPost(profile *models.InstagramProfile, overrides ...func(*models.InstagramPost)) (*models.InstagramPost, error) {
	shortcode := f.shortcode()
	post := &models.InstagramPost{
		ID:        fmt.Sprintf("%d", gofakeit.Number(1000000000, 2000000000)),
		ProfileID: profile.ID,
		Shortcode: shortcode,
		Caption:   gofakeit.Sentence(12),
		Likes:     gofakeit.Number(100, 80000),
		Comments:  gofakeit.Number(2, 2000),
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/1080/1080", gofakeit.UUID()),
		PostURL:   fmt.Sprintf("https://www.instagram.com/p/%s/", shortcode),
		Timestamp: f.pastDate(120),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}
