// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TikTokVideo represents one scraped short-form video. Rows are immutable
// after insert; re-scrapes of the same video are dropped on VideoURL.
type TikTokVideo struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"not null;index" json:"username"`
	Caption      string    `gorm:"type:text;not null" json:"caption"`
	Hashtags     []string  `gorm:"serializer:json" json:"hashtags"`
	Likes        int       `gorm:"not null;default:0" json:"likes"`
	Comments     int       `gorm:"not null;default:0" json:"comments"`
	Shares       int       `gorm:"not null;default:0" json:"shares"`
	Views        int       `gorm:"not null;default:0" json:"views"`
	PublishDate  time.Time `gorm:"type:timestamp;not null;index" json:"publish_date"`
	Music        string    `json:"music"`
	ThumbnailURL string    `json:"thumbnail_url"`
	VideoURL     string    `gorm:"uniqueIndex;not null" json:"video_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (TikTokVideo) TableName() string {
	return "tiktok_videos"
}

// BeforeCreate assigns a generated ID when the caller did not set one.
func (v *TikTokVideo) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// Engagement returns the combined interaction count used to rank videos.
func (v *TikTokVideo) Engagement() int {
	return v.Likes + v.Comments + v.Shares + v.Views
}

// TikTokProfile represents the mutable state of a creator account.
// The row is fully replaced on every successful re-scrape.
type TikTokProfile struct {
	Username       string    `gorm:"primaryKey" json:"username"`
	Verified       int       `gorm:"not null;default:0" json:"verified"`
	PrivateAccount int       `gorm:"not null;default:0" json:"private_account"`
	Region         string    `json:"region"`
	Following      int       `gorm:"not null;default:0" json:"following"`
	Friends        int       `gorm:"not null;default:0" json:"friends"`
	Fans           int       `gorm:"not null;default:0" json:"fans"`
	Heart          int       `gorm:"not null;default:0" json:"heart"`
	Video          int       `gorm:"not null;default:0" json:"video"`
	AvatarURL      string    `json:"avatar_url"`
	Signature      string    `gorm:"type:text" json:"signature"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (TikTokProfile) TableName() string {
	return "tiktok_profiles"
}
