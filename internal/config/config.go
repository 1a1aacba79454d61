// Package config loads trail settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultRedisURL is the well-known local store address used when nothing
// else is configured.
const DefaultRedisURL = "redis://127.0.0.1:6379"

type Config struct {
	RedisURL  string // TRAIL_REDIS_URL (default redis://127.0.0.1:6379)
	NATSURL   string // TRAIL_NATS_URL (optional, empty = no notifications)
	QueueSize int    // TRAIL_QUEUE_SIZE (default 100; background queue capacity)

	// Archive settings
	ArchiveS3Bucket   string // TRAIL_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string // TRAIL_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string // TRAIL_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string // TRAIL_ARCHIVE_S3_KEY (default "trail/export.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		RedisURL:          envOrDefault("TRAIL_REDIS_URL", DefaultRedisURL),
		NATSURL:           os.Getenv("TRAIL_NATS_URL"),
		ArchiveS3Bucket:   os.Getenv("TRAIL_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("TRAIL_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("TRAIL_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("TRAIL_ARCHIVE_S3_KEY", "trail/export.jsonl"),
	}

	sizeStr := envOrDefault("TRAIL_QUEUE_SIZE", "100")
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("TRAIL_QUEUE_SIZE: %q is not a non-negative integer", sizeStr)
	}
	c.QueueSize = size

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
