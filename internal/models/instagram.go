package models

import "time"

// InstagramProfile represents the mutable state of an Instagram account.
// The row is fully replaced on every successful re-scrape, keyed on Username.
type InstagramProfile struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	FullName       string    `json:"full_name"`
	Biography      string    `gorm:"type:text" json:"biography"`
	FollowersCount int       `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int       `gorm:"not null;default:0" json:"following_count"`
	PostsCount     int       `gorm:"not null;default:0" json:"posts_count"`
	AvatarURL      string    `json:"avatar_url"`
	IsVerified     int       `gorm:"not null;default:0" json:"is_verified"`
	IsPrivate      int       `gorm:"not null;default:0" json:"is_private"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (InstagramProfile) TableName() string {
	return "instagram_profiles"
}

// InstagramPost represents one scraped feed post. Rows are immutable after
// insert; re-scrapes of the same post are dropped on Shortcode.
type InstagramPost struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ProfileID string    `gorm:"index" json:"profile_id"`
	Shortcode string    `gorm:"uniqueIndex;not null" json:"shortcode"`
	Caption   string    `gorm:"type:text" json:"caption"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Comments  int       `gorm:"not null;default:0" json:"comments"`
	ImageURL  string    `json:"image_url"`
	PostURL   string    `json:"post_url"`
	Timestamp time.Time `gorm:"type:timestamp;not null;index" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (InstagramPost) TableName() string {
	return "instagram_posts"
}

// Engagement returns the combined interaction count used to rank posts.
func (p *InstagramPost) Engagement() int {
	return p.Likes + p.Comments
}
