package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawProfileDetail returns a provider record in the shape the Instagram
// actor emits for resultsType "details".
func rawProfileDetail() Record {
	return Record{
		"id":             "17841400000000001",
		"username":       "alice",
		"fullName":       "Alice Example",
		"biography":      "photos and code",
		"followersCount": float64(5200),
		"followsCount":   float64(300),
		"postsCount":     float64(87),
		"profilePicUrl":  "https://cdn.example.com/alice-ig.jpg",
		"verified":       true,
		"private":        false,
		"latestPosts": []any{
			map[string]any{
				"id":            "32000001",
				"shortCode":     "Cx1aB2c",
				"caption":       "sunset",
				"likesCount":    float64(420),
				"commentsCount": float64(11),
				"displayUrl":    "https://cdn.example.com/p1.jpg",
				"url":           "https://www.instagram.com/p/Cx1aB2c/",
				"timestamp":     "2024-02-01T18:00:00.000Z",
			},
			map[string]any{
				"id":            "32000002",
				"shortCode":     "Cx9dE3f",
				"likesCount":    float64(77),
				"commentsCount": float64(3),
				"timestamp":     "2024-02-03T09:15:00.000Z",
			},
		},
	}
}

func TestInstagramProfile_Complete(t *testing.T) {
	t.Parallel()

	profile, err := InstagramProfile(rawProfileDetail())
	require.NoError(t, err)

	assert.Equal(t, "17841400000000001", profile.ID)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "Alice Example", profile.FullName)
	assert.Equal(t, "photos and code", profile.Biography)
	assert.Equal(t, 5200, profile.FollowersCount)
	assert.Equal(t, 300, profile.FollowingCount)
	assert.Equal(t, 87, profile.PostsCount)
	assert.Equal(t, "https://cdn.example.com/alice-ig.jpg", profile.AvatarURL)
	assert.Equal(t, 1, profile.IsVerified)
	assert.Equal(t, 0, profile.IsPrivate)
}

func TestInstagramProfile_NumericIDCoerced(t *testing.T) {
	t.Parallel()

	rec := rawProfileDetail()
	rec["id"] = float64(17841400000000001)
	profile, err := InstagramProfile(rec)
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
}

func TestInstagramProfile_MissingIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(Record)
		wantField string
	}{
		{name: "no id", mutate: func(r Record) { delete(r, "id") }, wantField: "id"},
		{name: "no username", mutate: func(r Record) { delete(r, "username") }, wantField: "username"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := rawProfileDetail()
			tc.mutate(rec)
			_, err := InstagramProfile(rec)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.wantField, fieldErr.Field)
		})
	}
}

func TestInstagramPosts_ExtractsNested(t *testing.T) {
	t.Parallel()

	posts := InstagramPosts(rawProfileDetail())
	require.Len(t, posts, 2)
	assert.Equal(t, "Cx1aB2c", posts[0].String("shortCode"))

	assert.Empty(t, InstagramPosts(Record{"username": "alice"}))
}

func TestInstagramPost_Complete(t *testing.T) {
	t.Parallel()

	posts := InstagramPosts(rawProfileDetail())
	require.NotEmpty(t, posts)

	post, err := InstagramPost(posts[0], "17841400000000001")
	require.NoError(t, err)

	assert.Equal(t, "32000001", post.ID)
	assert.Equal(t, "17841400000000001", post.ProfileID)
	assert.Equal(t, "Cx1aB2c", post.Shortcode)
	assert.Equal(t, "sunset", post.Caption)
	assert.Equal(t, 420, post.Likes)
	assert.Equal(t, 11, post.Comments)
	assert.Equal(t, "https://cdn.example.com/p1.jpg", post.ImageURL)
	assert.Equal(t, "https://www.instagram.com/p/Cx1aB2c/", post.PostURL)
	assert.Equal(t, time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC), post.Timestamp)
}

func TestInstagramPost_OptionalDefaults(t *testing.T) {
	t.Parallel()

	posts := InstagramPosts(rawProfileDetail())
	require.Len(t, posts, 2)

	post, err := InstagramPost(posts[1], "17841400000000001")
	require.NoError(t, err)
	assert.Equal(t, "", post.Caption)
	assert.Equal(t, "", post.ImageURL)
	assert.Equal(t, "", post.PostURL)
}

func TestInstagramPost_Rejections(t *testing.T) {
	t.Parallel()

	base := func() Record {
		return Record{
			"id":        "32000003",
			"shortCode": "Cy0aA1b",
			"timestamp": "2024-02-05T12:00:00Z",
		}
	}

	tests := []struct {
		name       string
		mutate     func(Record)
		wantField  string
		wantReason string
	}{
		{name: "no id", mutate: func(r Record) { delete(r, "id") }, wantField: "id", wantReason: "missing"},
		{name: "no shortcode", mutate: func(r Record) { delete(r, "shortCode") }, wantField: "shortCode", wantReason: "missing"},
		{name: "no timestamp", mutate: func(r Record) { delete(r, "timestamp") }, wantField: "timestamp", wantReason: "missing"},
		{name: "negative likes", mutate: func(r Record) { r["likesCount"] = float64(-5) }, wantField: "likesCount", wantReason: "negative value"},
		{name: "negative comments", mutate: func(r Record) { r["commentsCount"] = float64(-1) }, wantField: "commentsCount", wantReason: "negative value"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := base()
			tc.mutate(rec)
			_, err := InstagramPost(rec, "p1")
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.wantField, fieldErr.Field)
			assert.Equal(t, tc.wantReason, fieldErr.Reason)
		})
	}
}
