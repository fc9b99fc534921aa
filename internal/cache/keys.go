package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ProfileKeyPrefix       = "profile:%s"
	VideoKeyPrefix         = "video:%s"
	VideoListKey           = "videos:all"
	VideoCategoryKeyPrefix = "videos:category:%s"
)

const (
	ProfileTTL = 5 * time.Minute
	VideoTTL   = 30 * time.Minute
)

func ProfileKey(userID uuid.UUID) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func VideoKey(videoID uuid.UUID) string {
	return fmt.Sprintf(VideoKeyPrefix, videoID)
}

func VideoCategoryKey(category string) string {
	return fmt.Sprintf(VideoCategoryKeyPrefix, category)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateProfile(ctx context.Context, userID uuid.UUID) {
	Invalidate(ctx, ProfileKey(userID))
}

// InvalidateVideos drops the catalog listings and, when given, one video entry.
func InvalidateVideos(ctx context.Context, videoID uuid.UUID, category string) {
	keys := []string{VideoListKey}
	if category != "" {
		keys = append(keys, VideoCategoryKey(category))
	}
	if videoID != uuid.Nil {
		keys = append(keys, VideoKey(videoID))
	}
	Invalidate(ctx, keys...)
}
