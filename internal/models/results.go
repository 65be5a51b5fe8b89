package models

// SkippedRecord describes one raw record that failed normalization and was
// excluded from a batch. Fields lists the keys present on the record so the
// caller can see what the provider actually sent.
type SkippedRecord struct {
	Index  int      `json:"index"`
	Reason string   `json:"reason"`
	Fields []string `json:"fields,omitempty"`
}

// TikTokScrapeResult is the outcome of a full TikTok content scrape.
// Every scrape produces one of these; failures are reported in Error with
// Success false rather than surfacing as transport errors.
type TikTokScrapeResult struct {
	Username        string          `json:"username"`
	VideosSaved     int             `json:"videos_saved"`
	LatestVideoDate *string         `json:"latest_video_date"`
	ProfileSaved    bool            `json:"profile_saved"`
	Skipped         []SkippedRecord `json:"skipped,omitempty"`
	Error           string          `json:"error,omitempty"`
	Success         bool            `json:"success"`
}

// TikTokProfileResult is the outcome of a profile-only TikTok scrape.
type TikTokProfileResult struct {
	Username       string         `json:"username"`
	ProfileData    *TikTokProfile `json:"profile_data"`
	ProfileUpdated bool           `json:"profile_updated"`
	Error          string         `json:"error,omitempty"`
	Success        bool           `json:"success"`
}

// InstagramScrapeResult is the outcome of a full Instagram content scrape.
type InstagramScrapeResult struct {
	Username       string          `json:"username"`
	PostsSaved     int             `json:"posts_saved"`
	LatestPostDate *string         `json:"latest_post_date"`
	ProfileSaved   bool            `json:"profile_saved"`
	Skipped        []SkippedRecord `json:"skipped,omitempty"`
	Error          string          `json:"error,omitempty"`
	Success        bool            `json:"success"`
}

// ContentIdea is a single generated content suggestion.
type ContentIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// RecommendationResult carries content ideas generated from a creator's
// best-performing videos.
type RecommendationResult struct {
	Username string        `json:"username"`
	Ideas    []ContentIdea `json:"ideas"`
}
