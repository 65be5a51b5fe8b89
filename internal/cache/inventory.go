package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	TikTokProfileKeyPrefix    = "tiktok:profile:%s"
	TikTokVideosKeyPrefix     = "tiktok:videos:%s"
	InstagramProfileKeyPrefix = "instagram:profile:%s"
	InstagramPostsKeyPrefix   = "instagram:posts:%s"
)

const (
	ProfileTTL = 10 * time.Minute
	ListTTL    = 5 * time.Minute
)

func TikTokProfileKey(username string) string {
	return fmt.Sprintf(TikTokProfileKeyPrefix, username)
}

// TikTokVideosKey identifies one page of a user's video list. The sort and
// pagination parameters are part of the key so variants never collide.
func TikTokVideosKey(username, sortBy, order string, limit, offset int) string {
	return fmt.Sprintf(TikTokVideosKeyPrefix+":%s:%s:%d:%d", username, sortBy, order, limit, offset)
}

func InstagramProfileKey(username string) string {
	return fmt.Sprintf(InstagramProfileKeyPrefix, username)
}

func InstagramPostsKey(username, sortBy, order string, limit, offset int) string {
	return fmt.Sprintf(InstagramPostsKeyPrefix+":%s:%s:%d:%d", username, sortBy, order, limit, offset)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePrefix deletes every key beginning with prefix. List caches carry
// their sort and pagination in the key, so writes clear all variants at once.
func InvalidatePrefix(ctx context.Context, prefix string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

// InvalidateTikTokVideos clears every cached video list page for a user.
func InvalidateTikTokVideos(ctx context.Context, username string) {
	InvalidatePrefix(ctx, fmt.Sprintf(TikTokVideosKeyPrefix, username))
}

// InvalidateInstagramPosts clears every cached post list page for a user.
func InvalidateInstagramPosts(ctx context.Context, username string) {
	InvalidatePrefix(ctx, fmt.Sprintf(InstagramPostsKeyPrefix, username))
}

func InvalidateTikTokUser(ctx context.Context, username string) {
	Invalidate(ctx, TikTokProfileKey(username))
	InvalidateTikTokVideos(ctx, username)
}

func InvalidateInstagramUser(ctx context.Context, username string) {
	Invalidate(ctx, InstagramProfileKey(username))
	InvalidateInstagramPosts(ctx, username)
}
