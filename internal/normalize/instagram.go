package normalize

import (
	"creatorpulse/internal/models"
)

// InstagramProfile normalizes the profile-detail record that heads an
// Instagram dataset. The external id and username identify the record.
func InstagramProfile(rec Record) (*models.InstagramProfile, error) {
	id := rec.String("id")
	if id == "" {
		return nil, &FieldError{Field: "id", Reason: "missing"}
	}
	username := rec.String("username")
	if username == "" {
		return nil, &FieldError{Field: "username", Reason: "missing"}
	}

	profile := &models.InstagramProfile{
		ID:         id,
		Username:   username,
		FullName:   rec.String("fullName"),
		Biography:  rec.String("biography"),
		AvatarURL:  rec.String("profilePicUrl"),
		IsVerified: rec.Bool01("verified"),
		IsPrivate:  rec.Bool01("private"),
	}
	counters := []struct {
		key string
		dst *int
	}{
		{"followersCount", &profile.FollowersCount},
		{"followsCount", &profile.FollowingCount},
		{"postsCount", &profile.PostsCount},
	}
	for _, c := range counters {
		n, err := rec.Int(c.key)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return profile, nil
}

// InstagramPosts returns the recent-post records nested in a profile-detail
// record.
func InstagramPosts(rec Record) []Record {
	return rec.ChildList("latestPosts")
}

// InstagramPost normalizes one raw feed post owned by the given profile.
// The external id, shortcode, and timestamp identify the record; negative
// engagement counters reject it.
func InstagramPost(rec Record, profileID string) (*models.InstagramPost, error) {
	id := rec.String("id")
	if id == "" {
		return nil, &FieldError{Field: "id", Reason: "missing"}
	}
	shortcode := rec.String("shortCode")
	if shortcode == "" {
		return nil, &FieldError{Field: "shortCode", Reason: "missing"}
	}
	timestamp, err := rec.Time("timestamp")
	if err != nil {
		return nil, err
	}

	post := &models.InstagramPost{
		ID:        id,
		ProfileID: profileID,
		Shortcode: shortcode,
		Caption:   rec.String("caption"),
		ImageURL:  rec.String("displayUrl"),
		PostURL:   rec.String("url"),
		Timestamp: timestamp,
	}
	counters := []struct {
		key string
		dst *int
	}{
		{"likesCount", &post.Likes},
		{"commentsCount", &post.Comments},
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
	return post, nil
}
