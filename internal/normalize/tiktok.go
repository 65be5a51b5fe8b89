package normalize

import (
	"creatorpulse/internal/models"
)

// TikTokVideo normalizes one raw video record. The author username, publish
// timestamp, and canonical video URL identify the record; missing any of
// them, or carrying a negative engagement counter, rejects the record.
func TikTokVideo(rec Record) (*models.TikTokVideo, error) {
	username := rec.Child("authorMeta").String("name")
	if username == "" {
		return nil, &FieldError{Field: "authorMeta.name", Reason: "missing"}
	}
	publishDate, err := rec.Time("createTimeISO")
	if err != nil {
		return nil, err
	}
	videoURL := rec.String("webVideoUrl")
	if videoURL == "" {
		return nil, &FieldError{Field: "webVideoUrl", Reason: "missing"}
	}

	video := &models.TikTokVideo{
		Username:     username,
		Caption:      rec.String("text"),
		Hashtags:     make([]string, 0, 4),
		PublishDate:  publishDate,
		Music:        rec.Child("musicMeta").String("musicAuthor"),
		ThumbnailURL: rec.Child("videoMeta").String("coverUrl"),
		VideoURL:     videoURL,
	}
	for _, tag := range rec.ChildList("hashtags") {
		if name := tag.String("name"); name != "" {
			video.Hashtags = append(video.Hashtags, name)
		}
	}

	counters := []struct {
		key string
		dst *int
	}{
		{"diggCount", &video.Likes},
		{"commentCount", &video.Comments},
		{"shareCount", &video.Shares},
		{"playCount", &video.Views},
	}
	for _, c := range counters {
		n, err := rec.Int(c.key)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, &FieldError{Field: c.key, Reason: "negative value"}
		}
		*c.dst = n
	}
	return video, nil
}

// TikTokProfile normalizes the author metadata embedded in a raw record into
// a profile row. Records from both the content scraper and the profile
// scraper carry the same authorMeta object.
func TikTokProfile(rec Record) (*models.TikTokProfile, error) {
	author := rec.Child("authorMeta")
	if author == nil {
		return nil, &FieldError{Field: "authorMeta", Reason: "missing"}
	}
	username := author.String("name")
	if username == "" {
		return nil, &FieldError{Field: "authorMeta.name", Reason: "missing"}
	}

	profile := &models.TikTokProfile{
		Username:       username,
		Verified:       author.Bool01("verified"),
		PrivateAccount: author.Bool01("privateAccount"),
		Region:         author.String("region"),
		AvatarURL:      author.String("avatar"),
		Signature:      author.String("signature"),
	}
	counters := []struct {
		key string
		dst *int
	}{
		{"following", &profile.Following},
		{"friends", &profile.Friends},
		{"fans", &profile.Fans},
		{"heart", &profile.Heart},
		{"video", &profile.Video},
	}
	for _, c := range counters {
		n, err := author.Int(c.key)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return profile, nil
}
