package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
)

type StorageConfigErrorCode string

const (
	StorageConfigErrorMissingBucket       StorageConfigErrorCode = "missing_bucket"
	StorageConfigErrorInvalidMode         StorageConfigErrorCode = "invalid_mode"
	StorageConfigErrorMissingEmulatorHost StorageConfigErrorCode = "missing_emulator_host"
	StorageConfigErrorInvalidEmulatorHost StorageConfigErrorCode = "invalid_emulator_host"
)

type StorageConfigError struct {
	Code StorageConfigErrorCode
	Msg  string
}

func (e *StorageConfigError) Error() string { return e.Msg }

func configErr(code StorageConfigErrorCode, format string, args ...any) error {
	return &StorageConfigError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// MaterialStorageConfig locates the bucket holding source material text.
type MaterialStorageConfig struct {
	Bucket       string
	Mode         ObjectStorageMode
	EmulatorHost string
}

func (cfg MaterialStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

// MaterialStorageConfigFromEnv reads MATERIAL_GCS_BUCKET_NAME,
// OBJECT_STORAGE_MODE and STORAGE_EMULATOR_HOST. An emulator host without an
// explicit mode selects the emulator.
func MaterialStorageConfigFromEnv() (MaterialStorageConfig, error) {
	cfg := MaterialStorageConfig{
		Bucket:       strings.TrimSpace(os.Getenv("MATERIAL_GCS_BUCKET_NAME")),
		EmulatorHost: strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
	}
	rawMode := strings.TrimSpace(os.Getenv("OBJECT_STORAGE_MODE"))
	switch mode := ObjectStorageMode(strings.ToLower(rawMode)); mode {
	case "":
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
		} else {
			cfg.Mode = ObjectStorageModeGCS
		}
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, configErr(StorageConfigErrorInvalidMode, "invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", rawMode, ObjectStorageModeGCS, ObjectStorageModeGCSEmulator)
	}
	if err := ValidateMaterialStorageConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateMaterialStorageConfig(cfg MaterialStorageConfig) error {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return configErr(StorageConfigErrorMissingBucket, "missing env var MATERIAL_GCS_BUCKET_NAME")
	}
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		return nil
	case ObjectStorageModeGCSEmulator:
	default:
		return configErr(StorageConfigErrorInvalidMode, "invalid object storage mode %q", cfg.Mode)
	}
	if cfg.EmulatorHost == "" {
		return configErr(StorageConfigErrorMissingEmulatorHost, "OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", ObjectStorageModeGCSEmulator)
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return configErr(StorageConfigErrorInvalidEmulatorHost, "invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", cfg.EmulatorHost)
	}
	return nil
}
