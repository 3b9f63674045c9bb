package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/studyladder/internal/platform/gcp"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

var newMaterialBucket = func(ctx context.Context, log *logger.Logger) (gcp.MaterialBucket, error) {
	cfg, err := gcp.MaterialStorageConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return gcp.NewMaterialBucketWithConfig(ctx, log, cfg)
}

type StorageBootstrapErrorCode string

const (
	StorageBootstrapErrorInvalidConfig StorageBootstrapErrorCode = "invalid_config"
	StorageBootstrapErrorConnectFailed StorageBootstrapErrorCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code       StorageBootstrapErrorCode
	ConfigCode gcp.StorageConfigErrorCode
	Cause      error
}

func (e *StorageBootstrapError) Error() string {
	if e == nil {
		return "material storage bootstrap failed"
	}
	if e.ConfigCode != "" {
		return fmt.Sprintf("material storage bootstrap failed (code=%s config=%s): %v", e.Code, e.ConfigCode, e.Cause)
	}
	return fmt.Sprintf("material storage bootstrap failed (code=%s): %v", e.Code, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveMaterialBucket returns nil without error when no bucket is
// configured; materials are then served from inline text only.
func resolveMaterialBucket(ctx context.Context, log *logger.Logger, cfg Config) (gcp.MaterialBucket, error) {
	if cfg.MaterialBucket == "" {
		log.Info("Material bucket not configured; inline source text only")
		return nil, nil
	}
	bucket, err := newMaterialBucket(ctx, log)
	if err != nil {
		classified := classifyStorageBootstrapError(err)
		log.Error("Material storage bootstrap failed", "error_code", classified.Code, "config_code", classified.ConfigCode, "error", err)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageBootstrapError(err error) *StorageBootstrapError {
	var cfgErr *gcp.StorageConfigError
	if errors.As(err, &cfgErr) {
		return &StorageBootstrapError{Code: StorageBootstrapErrorInvalidConfig, ConfigCode: cfgErr.Code, Cause: err}
	}
	return &StorageBootstrapError{Code: StorageBootstrapErrorConnectFailed, Cause: err}
}
