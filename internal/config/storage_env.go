package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// StorageEnv holds the environment-variable-backed settings for the
// object-store backend, per spec.md §6. The CLI and Lambda entrypoints
// apply S3Bucket, S3Prefix and S3UploadConcurrency; S3MaxRetries,
// S3RetryBaseDelayMs and SitemapS3Key are parsed but not applied, since
// snapshot.Store uses fixed retry settings and a fixed site-map key.
type StorageEnv struct {
	S3Bucket            string `env:"S3_BUCKET"`
	S3Prefix            string `env:"S3_PREFIX" envDefault:"uRing"`
	S3UploadConcurrency int    `env:"S3_UPLOAD_CONCURRENCY" envDefault:"16"`
	S3MaxRetries        int    `env:"S3_MAX_RETRIES" envDefault:"3"`
	S3RetryBaseDelayMs  int    `env:"S3_RETRY_BASE_DELAY_MS" envDefault:"200"`
	SitemapS3Key        string `env:"SITEMAP_S3_KEY" envDefault:"config/siteMap.json"`
}

// LoadStorageEnv parses the object-store environment overrides.
func LoadStorageEnv() (StorageEnv, error) {
	var s StorageEnv
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse storage env: %w", err)
	}
	return s, nil
}
