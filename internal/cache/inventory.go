package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache key inventory. Every key the application writes is minted here so
// invalidation stays in one place.
const (
	postKeyFmt        = "post:%d"
	lineageKeyFmt     = "post:%d:lineage"
	userKeyFmt        = "user:%d"
	collectionsKeyFmt = "collections:user:%d"
	postsListPrefix   = "posts:list:"
	summaryListKey    = "summary-posts:list"
)

// TTLs per key family.
const (
	PostTTL        = 10 * time.Minute
	LineageTTL     = 5 * time.Minute
	UserTTL        = 15 * time.Minute
	CollectionsTTL = 5 * time.Minute
	PostsListTTL   = 60 * time.Second
	SummaryListTTL = 60 * time.Second
)

// PostKey returns the cache key for a single post.
func PostKey(id uint) string { return fmt.Sprintf(postKeyFmt, id) }

// LineageKey returns the cache key for a post's lineage view.
func LineageKey(id uint) string { return fmt.Sprintf(lineageKeyFmt, id) }

// UserKey returns the cache key for a user profile.
func UserKey(id uint) string { return fmt.Sprintf(userKeyFmt, id) }

// CollectionsKey returns the cache key for a user's collection list.
func CollectionsKey(userID uint) string { return fmt.Sprintf(collectionsKeyFmt, userID) }

// PostsListKey returns the cache key for a filtered feed page. The caller
// passes a canonical filter signature (search|model|color|page|limit).
func PostsListKey(signature string) string { return postsListPrefix + signature }

// SummaryListKey returns the cache key for the shared summaries list.
func SummaryListKey() string { return summaryListKey }

// Invalidate drops the given keys.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidatePost drops the cached post and its lineage entry.
func InvalidatePost(ctx context.Context, id uint) {
	if client == nil {
		return
	}
	client.Del(ctx, PostKey(id), LineageKey(id))
}

// InvalidateUser drops the cached user profile.
func InvalidateUser(ctx context.Context, id uint) {
	if client == nil {
		return
	}
	client.Del(ctx, UserKey(id))
}

// InvalidateCollections drops a user's cached collection list.
func InvalidateCollections(ctx context.Context, userID uint) {
	if client == nil {
		return
	}
	client.Del(ctx, CollectionsKey(userID))
}

// InvalidatePostsList drops every cached feed page. Uses SCAN to avoid
// blocking Redis on large keyspaces.
func InvalidatePostsList(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, postsListPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateSummaryList drops the cached shared summaries list.
func InvalidateSummaryList(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, summaryListKey)
}
